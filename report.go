package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"HistoricalBattleSimulator/internal/config"
	"HistoricalBattleSimulator/internal/sim"
)

func printBanner(scn *config.Scenario, s *sim.Simulation) {
	title := color.New(color.FgCyan, color.Bold)
	info := color.New(color.FgYellow)
	title.Println("\n╭──────────────────────────────────╮")
	title.Println("│  Historical Battle Simulator     │")
	title.Println("╰──────────────────────────────────╯")
	info.Printf("%s, %d rounds, run %s\n\n", scn.Name, s.Rounds(), s.RunID())
}

func printOutcome(sum sim.Summary, path string) {
	fmt.Println()
	switch sum.Winner {
	case "":
		color.New(color.FgYellow, color.Bold).Printf("No decision after %d rounds\n", sum.Rounds)
	case "red":
		color.New(color.FgRed, color.Bold).Printf("Red prevails in round %d\n", sum.Rounds)
	default:
		color.New(color.FgGreen, color.Bold).Printf("Green prevails in round %d\n", sum.Rounds)
	}
	if n := len(sum.Series.RedTroops); n > 0 {
		fmt.Printf("Remaining troops: red %d, green %d\n", sum.Series.RedTroops[n-1], sum.Series.GreenTroops[n-1])
	}
	color.New(color.FgCyan).Printf("Summary written to %s\n\n", path)
}

func printUnits(sum sim.Summary) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Unit", "Faction", "Parent", "Type", "Troops", "Lost", "Morale", "Stage", "Action", "Position"}),
	)
	for _, u := range sum.Units {
		_ = table.Append([]string{
			u.Name,
			u.Faction,
			u.Parent,
			u.TroopType,
			strconv.Itoa(u.Troops),
			strconv.Itoa(u.Lost),
			u.Morale,
			u.Stage,
			u.Action,
			u.Position.String(),
		})
	}
	_ = table.Render()
}

func printForces(scn *config.Scenario) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithHeader([]string{"Unit", "Faction", "Commander", "Type", "Troops", "Morale", "Position"}),
	)
	add := func(faction, parent string, u config.Unit) {
		name := u.Name
		if parent != "" {
			name = parent + " / " + u.Name
		}
		pos := "-"
		if u.Position != nil {
			pos = u.Position.String()
		}
		_ = table.Append([]string{name, faction, u.Commander, u.TroopType, strconv.Itoa(u.InitialTroops()), u.Morale, pos})
	}
	for _, side := range []struct {
		label string
		f     config.Faction
	}{{"red", scn.Red}, {"green", scn.Green}} {
		add(side.label, "", side.f.Unit)
		for _, sub := range side.f.SubAgents {
			add(side.label, side.f.Name, sub)
		}
	}
	_ = table.Render()
}
