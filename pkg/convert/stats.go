package convert

import (
	"github.com/rs/zerolog"
	"github.com/sasha-s/go-deadlock"

	"matport/pkg/shader"
)

// Stats counts what happened during a run. Safe for concurrent use by the
// parse and map workers.
type Stats struct {
	mu deadlock.Mutex

	MaterialsParsed int
	ParseFailures   int
	Mapped          int
	MappingFailures int
	TexturesCopied  int
	MissingTextures int
	ModelsCopied    int

	Families map[shader.Family]int
	Bases    map[shader.Basis]int
}

func NewStats() *Stats {
	return &Stats{
		Families: make(map[shader.Family]int),
		Bases:    make(map[shader.Basis]int),
	}
}

func (s *Stats) parsed() {
	s.mu.Lock()
	s.MaterialsParsed++
	s.mu.Unlock()
}

func (s *Stats) parseFailed() {
	s.mu.Lock()
	s.ParseFailures++
	s.mu.Unlock()
}

func (s *Stats) mapped(family shader.Family, basis shader.Basis) {
	s.mu.Lock()
	s.Mapped++
	s.Families[family]++
	s.Bases[basis]++
	s.mu.Unlock()
}

func (s *Stats) mappingFailed() {
	s.mu.Lock()
	s.MappingFailures++
	s.mu.Unlock()
}

// Log writes the run summary.
func (s *Stats) Log(event *zerolog.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	families := zerolog.Dict()
	for family, count := range s.Families {
		families.Int(string(family), count)
	}

	event.
		Int("parsed", s.MaterialsParsed).
		Int("parseFailures", s.ParseFailures).
		Int("mapped", s.Mapped).
		Int("mappingFailures", s.MappingFailures).
		Int("texturesCopied", s.TexturesCopied).
		Int("missingTextures", s.MissingTextures).
		Int("modelsCopied", s.ModelsCopied).
		Dict("families", families).
		Msg("conversion finished")
}
