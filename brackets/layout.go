package brackets

import (
	"github.com/Dosada05/tournament-dashboard/models"
)

// Layout geometry in abstract units; clients scale it as they like.
const (
	LayoutColumnWidth = 240
	LayoutRowHeight   = 80
)

type NodePosition struct {
	MatchID int     `json:"match_id" yaml:"match_id"`
	UID     string  `json:"uid" yaml:"uid"`
	Column  int     `json:"column" yaml:"column"`
	Row     float64 `json:"row" yaml:"row"`
	X       int     `json:"x" yaml:"x"`
	Y       int     `json:"y" yaml:"y"`
}

type Connector struct {
	FromMatchID int `json:"from_match_id" yaml:"from_match_id"`
	ToMatchID   int `json:"to_match_id" yaml:"to_match_id"`
	// Slot of the target match the line ends at.
	Slot models.Slot `json:"slot" yaml:"slot"`
}

type Layout struct {
	Columns    int            `json:"columns" yaml:"columns"`
	Rows       float64        `json:"rows" yaml:"rows"`
	Nodes      []NodePosition `json:"nodes" yaml:"nodes"`
	Connectors []Connector    `json:"connectors" yaml:"connectors"`
}

// ComputeLayout projects a match graph onto a grid. Column is round-1; first-round matches take one
// row each and later matches sit centred between their feeders. The third-place match goes one
// row below the final.
func ComputeLayout(g *Graph) *Layout {
	layout := &Layout{Nodes: []NodePosition{}, Connectors: []Connector{}}
	if g == nil || g.Len() == 0 {
		return layout
	}

	rows := make(map[int]float64, g.Len())
	nextFree := 0.0
	var place func(m *models.Match) float64
	place = func(m *models.Match) float64 {
		if r, ok := rows[m.ID]; ok {
			return r
		}
		var feeders []float64
		for _, id := range m.PreviousMatchIDs {
			if prev, ok := g.Match(id); ok {
				feeders = append(feeders, place(prev))
			}
		}
		var r float64
		switch len(feeders) {
		case 0:
			r = nextFree
			nextFree++
		default:
			sum := 0.0
			for _, f := range feeders {
				sum += f
			}
			r = sum / float64(len(feeders))
		}
		rows[m.ID] = r
		return r
	}

	matches := g.Matches()
	tp := g.ThirdPlaceMatch()
	linked := false
	for _, m := range matches {
		if m.NextMatchID != nil || len(m.PreviousMatchIDs) > 0 {
			linked = true
			break
		}
	}
	for _, m := range matches {
		if m.IsThirdPlaceMatch {
			continue
		}
		// league schedules have no links: one column per matchday
		if !linked {
			rows[m.ID] = float64(m.MatchNumber - 1)
			continue
		}
		place(m)
	}

	maxRow := 0.0
	for _, r := range rows {
		if r > maxRow {
			maxRow = r
		}
	}
	if tp != nil {
		row := maxRow + 1
		if final := g.Final(); final != nil {
			row = rows[final.ID] + 1
			if row <= maxRow {
				row = maxRow + 1
			}
		}
		rows[tp.ID] = row
		if row > maxRow {
			maxRow = row
		}
	}

	for _, m := range matches {
		col := m.Round - 1
		if col+1 > layout.Columns {
			layout.Columns = col + 1
		}
		r := rows[m.ID]
		layout.Nodes = append(layout.Nodes, NodePosition{
			MatchID: m.ID,
			UID:     m.UID,
			Column:  col,
			Row:     r,
			X:       col * LayoutColumnWidth,
			Y:       int(r * LayoutRowHeight),
		})
		for i, id := range m.PreviousMatchIDs {
			layout.Connectors = append(layout.Connectors, Connector{
				FromMatchID: id,
				ToMatchID:   m.ID,
				Slot:        models.SlotForIndex(i),
			})
		}
	}
	layout.Rows = maxRow + 1
	return layout
}
