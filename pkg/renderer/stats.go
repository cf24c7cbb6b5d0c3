package renderer

import (
	"bytes"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/df07/go-lightsampler/pkg/integrator"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	Samples     int           // Light particles requested
	Paths       int64         // Particles that left an emitter
	Absorbed    int64         // Paths ended by absorption or Russian roulette
	Escaped     int64         // Paths that left the scene
	Connections int64         // Eye connections with a nonzero contribution
	Hits        int64         // Contributions stored in the density buffers
	Photons     int64         // Photons deposited
	Workers     int           // Parallel workers used
	Batches     int           // Batches traced
	Duration    time.Duration // Wall time including reconstruction
}

// AddTrace accumulates the counters of one traced batch.
func (s *RenderStats) AddTrace(t integrator.TraceStats) {
	s.Paths += t.Paths
	s.Absorbed += t.Absorbed
	s.Escaped += t.Escaped
	s.Connections += t.Connections
	s.Hits += t.Hits
	s.Photons += t.Photons
	s.Batches++
}

// PathsPerSecond returns the tracing throughput over the whole render.
func (s RenderStats) PathsPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.Paths) / s.Duration.Seconds()
}

// Table renders the statistics as a text table.
func (s RenderStats) Table() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Statistic", "Value"})
	table.Append([]string{"Samples", fmt.Sprintf("%d", s.Samples)})
	table.Append([]string{"Paths", fmt.Sprintf("%d", s.Paths)})
	table.Append([]string{"Absorbed", fmt.Sprintf("%d", s.Absorbed)})
	table.Append([]string{"Escaped", fmt.Sprintf("%d", s.Escaped)})
	table.Append([]string{"Connections", fmt.Sprintf("%d", s.Connections)})
	table.Append([]string{"Hits", fmt.Sprintf("%d", s.Hits)})
	table.Append([]string{"Photons", fmt.Sprintf("%d", s.Photons)})
	table.Append([]string{"Workers", fmt.Sprintf("%d", s.Workers)})
	table.Append([]string{"Batches", fmt.Sprintf("%d", s.Batches)})
	table.SetFooter([]string{"Render time", s.Duration.String()})
	table.Render()
	return buf.String()
}
