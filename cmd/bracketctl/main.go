package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/Dosada05/tournament-dashboard/brackets"
	"github.com/Dosada05/tournament-dashboard/models"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	participantsFlag  = "participants"
	outputFlag        = "output"
	formatFlag        = "format"
	seedFlag          = "seed"
	randomizeFlag     = "randomize"
	thirdPlaceFlag    = "third-place"
	avoidSameTeamFlag = "avoid-same-team"
	legsFlag          = "legs"
	stdoutCLIName     = "-"

	// offlineEventID is the event every participant of a file belongs to.
	offlineEventID = 1
)

var build string
var semanticVersion = "v0.1.0-dev" + build

type matchDump struct {
	UID        string `yaml:"uid"`
	Round      int    `yaml:"round"`
	Number     int    `yaml:"number"`
	Home       string `yaml:"home,omitempty"`
	Away       string `yaml:"away,omitempty"`
	Winner     string `yaml:"winner,omitempty"`
	Status     string `yaml:"status"`
	Next       string `yaml:"next,omitempty"`
	Bye        bool   `yaml:"bye,omitempty"`
	ThirdPlace bool   `yaml:"third_place,omitempty"`
}

type bracketDump struct {
	Generator        string                  `yaml:"generator"`
	Seeding          []string                `yaml:"seeding"`
	SameTeamFallback bool                    `yaml:"same_team_fallback,omitempty"`
	PlayableMatches  int                     `yaml:"playable_matches"`
	Matches          []matchDump             `yaml:"matches"`
	Layout           []brackets.NodePosition `yaml:"layout,omitempty"`
}

// readParticipants parses "name[,team]" records; blank lines and lines starting with # are skipped.
func readParticipants(r io.Reader) ([]*models.Participant, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.Comment = '#'
	reader.TrimLeadingSpace = true

	teams := make(map[string]int)
	var participants []*models.Participant
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read participants: %w", err)
		}
		name := strings.TrimSpace(record[0])
		if name == "" {
			continue
		}
		p := &models.Participant{ID: len(participants) + 1, Kind: models.ParticipantPlayer, Name: name}
		if len(record) > 1 {
			if team := strings.TrimSpace(record[1]); team != "" {
				id, ok := teams[team]
				if !ok {
					id = len(teams) + 1
					teams[team] = id
				}
				p.Memberships = []models.TeamMembership{{TeamID: id, EventID: offlineEventID}}
			}
		}
		participants = append(participants, p)
	}
	return participants, nil
}

func buildDump(ctx context.Context, fixture *models.Fixture, participants []*models.Participant, maxAttempts int) (*bracketDump, error) {
	generator, ok := brackets.GeneratorFor(fixture.Format, maxAttempts)
	if !ok {
		return nil, fmt.Errorf("unknown format %q (expected %s or %s)", fixture.Format, models.FormatKnockout, models.FormatRoundRobin)
	}
	bracket, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
		Fixture:      fixture,
		Participants: participants,
	})
	if err != nil {
		return nil, err
	}

	names := make(map[int]string, len(participants))
	for _, p := range participants {
		names[p.ID] = p.Name
	}
	nameOf := func(id *int) string {
		if id == nil {
			return ""
		}
		return names[*id]
	}

	g := brackets.NewGraph(bracket.Matches)
	dump := &bracketDump{
		Generator:        generator.GetName(),
		SameTeamFallback: bracket.SameTeamFallback,
		PlayableMatches:  brackets.PlayableCount(bracket.Matches),
	}
	for _, id := range bracket.Seeding {
		dump.Seeding = append(dump.Seeding, names[id])
	}
	for _, m := range g.Matches() {
		md := matchDump{
			UID:        m.UID,
			Round:      m.Round,
			Number:     m.MatchNumber,
			Home:       nameOf(m.HomeParticipantID),
			Away:       nameOf(m.AwayParticipantID),
			Winner:     nameOf(m.WinnerID),
			Status:     string(m.Status),
			Bye:        m.IsBye,
			ThirdPlace: m.IsThirdPlaceMatch,
		}
		if m.NextMatchID != nil {
			if next, ok := g.Match(*m.NextMatchID); ok {
				md.Next = next.UID
			}
		}
		dump.Matches = append(dump.Matches, md)
	}
	if fixture.Format == models.FormatKnockout {
		dump.Layout = brackets.ComputeLayout(g).Nodes
	}
	return dump, nil
}

func buildAction(cCtx *cli.Context) error {
	in, err := os.Open(cCtx.String(participantsFlag))
	if err != nil {
		return fmt.Errorf("failed to open participants file: %w", err)
	}
	defer in.Close()

	participants, err := readParticipants(in)
	if err != nil {
		return err
	}

	fixture := &models.Fixture{
		ID:              1,
		EventID:         offlineEventID,
		Format:          models.FixtureFormat(strings.ToLower(cCtx.String(formatFlag))),
		ParticipantType: models.ParticipantPlayer,
		Settings: models.FixtureSettings{
			ThirdPlaceMatch:         cCtx.Bool(thirdPlaceFlag),
			RandomizeSeeds:          cCtx.Bool(randomizeFlag),
			Seed:                    cCtx.Int64(seedFlag),
			AvoidSameTeamFirstRound: cCtx.Bool(avoidSameTeamFlag),
			NumberOfRounds:          cCtx.Int(legsFlag),
		},
	}
	for _, p := range participants {
		fixture.ParticipantIDs = append(fixture.ParticipantIDs, p.ID)
	}

	dump, err := buildDump(cCtx.Context, fixture, participants, brackets.DefaultMaxReseedAttempts)
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if location := cCtx.String(outputFlag); location != stdoutCLIName {
		f, err := os.OpenFile(location, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open output: %w", err)
		}
		defer f.Close()
		out = f
	}

	yamlEncoder := yaml.NewEncoder(out)
	yamlEncoder.SetIndent(2)
	if err := yamlEncoder.Encode(dump); err != nil {
		return fmt.Errorf("encoding to YAML failed: %w", err)
	}
	if err := yamlEncoder.Close(); err != nil {
		return fmt.Errorf("encoding to YAML failed on close: %w", err)
	}
	return nil
}

func main() {
	app := &cli.App{
		Name:    "bracketctl",
		Usage:   "Build tournament brackets offline and print them as YAML",
		Version: semanticVersion,
		Commands: []*cli.Command{
			{
				Name:  "build",
				Usage: "Generate a bracket or a round-robin schedule from a participants file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     participantsFlag,
						Aliases:  []string{"p"},
						Usage:    "Path to a file with one \"name[,team]\" record per line, in seeding order",
						Required: true,
					},
					&cli.StringFlag{
						Name:    outputFlag,
						Aliases: []string{"o"},
						Usage:   "The location to write the YAML result. Can be a file path or \"-\" (for stdout).",
						Value:   stdoutCLIName,
					},
					&cli.StringFlag{
						Name:  formatFlag,
						Usage: "knockout or roundrobin",
						Value: string(models.FormatKnockout),
					},
					&cli.Int64Flag{
						Name:  seedFlag,
						Usage: "Seed of the shuffle used by --randomize and same-team reseeding",
					},
					&cli.BoolFlag{
						Name:  randomizeFlag,
						Usage: "Shuffle the seeding order deterministically with --seed",
					},
					&cli.BoolFlag{
						Name:  thirdPlaceFlag,
						Usage: "Add a third-place match between the semifinal losers",
					},
					&cli.BoolFlag{
						Name:  avoidSameTeamFlag,
						Usage: "Keep teammates apart in the first round when possible",
					},
					&cli.IntFlag{
						Name:  legsFlag,
						Usage: "Round-robin legs (1 or 2)",
						Value: 1,
					},
				},
				Action: buildAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
