package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/matchday/go/internal/dbconfig"
)

// Location mirrors the venues JSON snapshot
type Location struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	City      string  `json:"city"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Fields    []Field `json:"fields"`
}

type Field struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	FieldType string `json:"field_type"`
	Covered   bool   `json:"covered"`
}

func main() {
	path := "go/internal/assets/venues.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var locations []Location
	if err := json.Unmarshal(data, &locations); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var inserted, skipped, errs int

	for _, loc := range locations {
		cmdTag, err := pool.Exec(context.Background(), `
            INSERT INTO locations (id, name, address, city, latitude, longitude, created_at)
            VALUES ($1,$2,$3,$4,$5,$6,NOW())
            ON CONFLICT (id) DO NOTHING
        `, loc.ID, loc.Name, loc.Address, loc.City, loc.Latitude, loc.Longitude)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting location %s: %v\n", loc.ID, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}

		for _, f := range loc.Fields {
			cmdTag, err := pool.Exec(context.Background(), `
                INSERT INTO fields (id, location_id, name, field_type, covered, created_at)
                VALUES ($1,$2,$3,$4,$5,NOW())
                ON CONFLICT (id) DO NOTHING
            `, f.ID, loc.ID, f.Name, f.FieldType, f.Covered)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error inserting field %s: %v\n", f.ID, err)
				errs++
				continue
			}
			if cmdTag.RowsAffected() == 1 {
				inserted++
			} else {
				skipped++
			}
		}
	}

	fmt.Printf("venues seed complete: %d inserted, %d skipped, %d errors\n", inserted, skipped, errs)
	if errs > 0 {
		os.Exit(1)
	}
}
