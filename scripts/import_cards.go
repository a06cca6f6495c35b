package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ledgerline/ledgerline-server/internal/catalog"
	"gopkg.in/yaml.v3"
)

// Expected CSV header, in order. Trailing numeric columns may be blank.
var columns = []string{
	"key", "name", "type", "cost", "effect", "text",
	"inventory", "revenue_per_sale", "overhead_cost", "appeal",
}

func main() {
	// Get CSV file path from args or use default
	csvPath := "data/cards.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}
	outPath := "data/cards.yaml"
	if len(os.Args) > 2 {
		outPath = os.Args[2]
	}
	basePath := os.Getenv("CATALOG_BASE")

	absPath, err := filepath.Abs(csvPath)
	if err != nil {
		log.Fatalf("Failed to get absolute path: %v", err)
	}

	fmt.Println("=== Ledgerline Card Import ===")
	fmt.Printf("CSV file: %s\n", absPath)

	file, err := os.Open(absPath)
	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	defs, err := readCards(file)
	if err != nil {
		log.Fatalf("Failed to read CSV: %v", err)
	}
	fmt.Printf("Parsed %d cards\n", len(defs))

	// Start from the base catalogue so heroes and starter decks carry over
	base, err := catalog.Load(basePath)
	if err != nil {
		log.Fatalf("Failed to load base catalogue: %v", err)
	}
	merged, replaced := merge(base, defs)
	fmt.Printf("Replaced %d existing cards, added %d\n", replaced, len(defs)-replaced)

	data, err := yaml.Marshal(merged)
	if err != nil {
		log.Fatalf("Failed to encode catalogue: %v", err)
	}

	// Round-trip through the loader so the output is known to be valid
	checked, err := catalog.Parse(data)
	if err != nil {
		log.Fatalf("Merged catalogue is invalid: %v", err)
	}
	if unknown := checked.UnknownEffects(); len(unknown) > 0 {
		fmt.Printf("Warning: effects with no resolver: %s\n", strings.Join(unknown, ", "))
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		log.Fatalf("Failed to write catalogue: %v", err)
	}

	fmt.Println("\n=== Import Complete ===")
	fmt.Printf("✓ Wrote %d cards to %s\n", len(checked.Cards), outPath)
	fmt.Println("\nNext steps:")
	fmt.Printf("  1. Point the server at it: LEDGERLINE_CATALOG_PATH=%s\n", outPath)
}

func readCards(r io.Reader) ([]catalog.CardDef, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV file is empty or has no data rows")
	}
	for i, want := range columns[:4] {
		if i >= len(records[0]) || strings.ToLower(strings.TrimSpace(records[0][i])) != want {
			return nil, fmt.Errorf("header column %d must be %q", i+1, want)
		}
	}

	defs := make([]catalog.CardDef, 0, len(records)-1)
	for i, record := range records[1:] { // Skip header
		if len(record) < 4 {
			log.Printf("Warning: Skipping row %d - insufficient columns", i+2)
			continue
		}
		field := func(n int) string {
			if n < len(record) {
				return strings.TrimSpace(record[n])
			}
			return ""
		}

		def := catalog.CardDef{
			Key:    field(0),
			Name:   field(1),
			Type:   strings.ToLower(field(2)),
			Effect: field(4),
			Text:   field(5),
		}
		if def.Cost, err = strconv.Atoi(field(3)); err != nil {
			return nil, fmt.Errorf("row %d: cost %q: %w", i+2, field(3), err)
		}
		def.Inventory = parseInt(field(6))
		def.RevenuePerSale = int64(parseInt(field(7)))
		def.OverheadCost = parseInt(field(8))
		def.Appeal = parseInt(field(9))

		defs = append(defs, def)
	}
	return defs, nil
}

// merge replaces cards with matching keys and appends new ones.
func merge(base *catalog.Catalog, defs []catalog.CardDef) (*catalog.Catalog, int) {
	out := &catalog.Catalog{
		Version:      base.Version,
		Cards:        append([]catalog.CardDef(nil), base.Cards...),
		Heroes:       base.Heroes,
		StarterDecks: base.StarterDecks,
	}
	index := make(map[string]int, len(out.Cards))
	for i, c := range out.Cards {
		index[c.Key] = i
	}

	replaced := 0
	for _, d := range defs {
		if i, ok := index[d.Key]; ok {
			out.Cards[i] = d
			replaced++
			continue
		}
		index[d.Key] = len(out.Cards)
		out.Cards = append(out.Cards, d)
	}
	return out, replaced
}

func parseInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
