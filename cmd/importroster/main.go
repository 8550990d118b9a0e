// cmd/importroster/main.go
// Loads trainers and members from a JSON roster into PostgreSQL.
// Re-running the same file is safe: existing ids are skipped.
//
// Usage:
//
//	go run ./cmd/importroster -file roster.json
//
// roster.json:
//
//	{"trainers": [{"id": "...", "userId": "...", "tenantId": "...", "name": "Ana"}],
//	 "members":  [{"tenantId": "...", "name": "Bruno Silva", "email": "b@x.pt"}]}
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/padraicbc/trainagenda/config"
	bundb "github.com/padraicbc/trainagenda/db"
	"github.com/padraicbc/trainagenda/models"
)

const batchSize = 500

type roster struct {
	Trainers []models.Trainer `json:"trainers"`
	Members  []models.Member  `json:"members"`
}

func main() {
	file := flag.String("file", "", "roster json file (required)")
	flag.Parse()
	if *file == "" {
		log.Fatal("-file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("open roster: %v", err)
	}
	r, err := loadRoster(f)
	f.Close()
	if err != nil {
		log.Fatalf("roster: %v", err)
	}

	ctx := context.Background()
	cfg := config.Load()
	pgDB := bundb.Setup(cfg)
	defer pgDB.Close()

	if err := bundb.CreateTables(ctx, pgDB); err != nil {
		log.Fatalf("create tables: %v", err)
	}

	steps := []struct {
		name string
		fn   func() (int, error)
	}{
		{"trainers", func() (int, error) { return insertBatches(ctx, pgDB, r.Trainers) }},
		{"members", func() (int, error) { return insertBatches(ctx, pgDB, r.Members) }},
	}
	for _, s := range steps {
		n, err := s.fn()
		if err != nil {
			log.Fatalf("import %s: %v", s.name, err)
		}
		log.Printf("%-10s  %d rows sent", s.name, n)
	}
	log.Println("import complete")
}

// loadRoster decodes and checks a roster. Missing ids are generated.
func loadRoster(rd io.Reader) (*roster, error) {
	var r roster
	dec := json.NewDecoder(rd)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	for i := range r.Trainers {
		t := &r.Trainers[i]
		if err := checkRow(&t.ID, t.TenantID, &t.Name); err != nil {
			return nil, fmt.Errorf("trainer %d: %w", i, err)
		}
		if t.UserID != nil {
			if _, err := uuid.Parse(*t.UserID); err != nil {
				return nil, fmt.Errorf("trainer %d: userId: %w", i, err)
			}
		}
	}
	for i := range r.Members {
		m := &r.Members[i]
		if err := checkRow(&m.ID, m.TenantID, &m.Name); err != nil {
			return nil, fmt.Errorf("member %d: %w", i, err)
		}
		if m.Email != nil && strings.TrimSpace(*m.Email) == "" {
			m.Email = nil
		}
	}
	return &r, nil
}

func checkRow(id *string, tenantID string, name *string) error {
	if *id == "" {
		*id = uuid.NewString()
	} else if _, err := uuid.Parse(*id); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	if _, err := uuid.Parse(tenantID); err != nil {
		return fmt.Errorf("tenantId: %w", err)
	}
	*name = strings.TrimSpace(*name)
	if *name == "" {
		return fmt.Errorf("name is required")
	}
	return nil
}

// insertBatches inserts rows batchSize at a time, skipping rows that already exist.
func insertBatches[T any](ctx context.Context, db bun.IDB, rows []T) (int, error) {
	total := 0
	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		batch := rows[start:end]
		if _, err := db.NewInsert().Model(&batch).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
			return total, err
		}
		total += len(batch)
	}
	return total, nil
}
