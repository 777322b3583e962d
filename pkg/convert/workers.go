package convert

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"matport/pkg/diag"
	"matport/pkg/mapper"
	"matport/pkg/shader"
	"matport/pkg/umat"
	"matport/pkg/upack"
)

// parseRecords decodes every material-typed content entry through a worker
// pool. Each record is a pure function of its own bytes, so the only shared
// state is the result channel.
func parseRecords(index *upack.Index, workers int, sink *diag.Sink, stats *Stats) map[string]*umat.Record {
	type parsed struct {
		id     string
		record *umat.Record
		err    error
	}

	ids := materialIds(index)
	jobs := make(chan string)
	results := make(chan parsed)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				data, _ := index.Content(id)
				record, err := umat.Parse(data, id)
				results <- parsed{id: id, record: record, err: err}
			}
		}()
	}

	go func() {
		for _, id := range ids {
			jobs <- id
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	records := make(map[string]*umat.Record)
	for result := range results {
		if result.err != nil {
			sink.Report(diag.MaterialParse, result.id, "%v", result.err)
			stats.parseFailed()
			continue
		}

		record := result.record
		name := record.Name
		if _, taken := records[name]; taken {
			// Output names must stay unique; keep the record under a
			// suffixed name and flag the collision.
			for n := 2; ; n++ {
				candidate := fmt.Sprintf("%s_%d", record.Name, n)
				if _, ok := records[candidate]; !ok {
					name = candidate
					break
				}
			}
			sink.Report(diag.MaterialParse, result.id,
				"duplicate material name %q, renamed to %q", record.Name, name)
			renamed := *record
			renamed.Name = name
			record = &renamed
		}

		records[name] = record
		stats.parsed()
	}

	log.Debug().
		Int("records", len(records)).
		Int("failures", stats.ParseFailures).
		Msg("material records parsed")

	return records
}

// mapMaterials rewrites every parsed record into its target form. The cache
// is read-only by now, so mapping is embarrassingly parallel; output order
// is fixed by sorting the material names up front.
func mapMaterials(
	records map[string]*umat.Record,
	cache *shader.Cache,
	index *upack.Index,
	workers int,
	sink *diag.Sink,
	stats *Stats,
) []*mapper.Material {
	names := sortedMaterialNames(records)

	jobs := make(chan string)
	results := make(chan *mapper.Material)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				material, err := mapper.Map(
					records[name], decisionFor(cache, name), index, sink)
				if err != nil {
					sink.Report(diag.Mapping, name, "%v", err)
					stats.mappingFailed()
					continue
				}
				results <- material
			}
		}()
	}

	go func() {
		for _, name := range names {
			jobs <- name
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	byName := make(map[string]*mapper.Material, len(names))
	for material := range results {
		byName[material.Name] = material
		stats.mapped(material.Family, material.Basis)
	}

	materials := make([]*mapper.Material, 0, len(byName))
	for _, name := range names {
		if material, ok := byName[name]; ok {
			materials = append(materials, material)
		}
	}
	return materials
}
