package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/estatebid/estatebid-api/internal/admin"
)

// PrintSummary prints the account about to be created.
func PrintSummary(in AdminInput) {
	fmt.Println(titleStyle.Render("Admin account"))
	fmt.Printf("  Name:     %s\n", strings.TrimSpace(in.Name))
	fmt.Printf("  Email:    %s\n", strings.TrimSpace(in.Email))
	fmt.Printf("  Password: %s\n", subtleStyle.Render(strings.Repeat("*", len(in.Password))))
	fmt.Println()
}

// PrintSuccess prints a success message.
func PrintSuccess(msg string) {
	fmt.Println(successStyle.Render(msg))
}

// PrintError prints an error message.
func PrintError(msg string) {
	fmt.Println(errorStyle.Render("Error: " + msg))
}

// PrintStatistics renders the dashboard figures as boxed sections.
func PrintStatistics(stats *admin.Statistics) {
	fmt.Println(RenderStatistics(stats))
}

// RenderStatistics returns the text PrintStatistics writes
func RenderStatistics(stats *admin.Statistics) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("EstateBid statistics"))
	b.WriteString("\n")

	b.WriteString(section("Overview", []row{
		{"Users", fmt.Sprint(stats.Overview.TotalUsers)},
		{"Properties", fmt.Sprint(stats.Overview.TotalProperties)},
		{"Bids", fmt.Sprint(stats.Overview.TotalBids)},
	}))
	b.WriteString(section("Users by role", countRows(stats.UsersByRole)))
	b.WriteString(section("Properties by type", countRows(stats.PropertiesByType)))
	b.WriteString(section("Properties by status", countRows(stats.PropertiesByStatus)))

	recentUsers := make([]row, 0, len(stats.RecentUsers))
	for _, u := range stats.RecentUsers {
		recentUsers = append(recentUsers, row{u.Email, string(u.Role)})
	}
	b.WriteString(section("Recent users", recentUsers))

	recentProps := make([]row, 0, len(stats.RecentProperties))
	for _, p := range stats.RecentProperties {
		recentProps = append(recentProps, row{p.Title, fmt.Sprintf("%s  %.2f", p.Status, p.Price)})
	}
	b.WriteString(section("Recent properties", recentProps))

	return b.String()
}

type row struct {
	label string
	value string
}

func countRows(counts map[string]int64) []row {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	rows := make([]row, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, row{k, fmt.Sprint(counts[k])})
	}
	return rows
}

func section(title string, rows []row) string {
	lines := []string{successStyle.Render(title)}
	if len(rows) == 0 {
		lines = append(lines, subtleStyle.Render("none"))
	}
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(r.label)+r.value)
	}
	return boxStyle.Render(strings.Join(lines, "\n")) + "\n"
}
