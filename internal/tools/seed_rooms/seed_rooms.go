package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/studyroom/internal/dbconfig"
)

// Room mirrors the JSON seed snapshot
type Room struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	CreatorID   string          `json:"creator_id"`
	CreatorRole string          `json:"creator_role"`
	Settings    json.RawMessage `json:"settings"`
}

func main() {
	// 1) Load the JSON snapshot
	path := "internal/assets/rooms.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var seedRooms []Room
	if err := json.Unmarshal(data, &seedRooms); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Upsert and count
	var (
		total    = len(seedRooms)
		inserted int
		skipped  int
		errs     int
	)

	for _, room := range seedRooms {
		var settings any
		if len(room.Settings) > 0 {
			settings = []byte(room.Settings)
		}
		cmdTag, err := pool.Exec(context.Background(), `
            INSERT INTO rooms (id, name, creator_id, creator_role, settings)
            VALUES ($1, $2, $3, $4, $5)
            ON CONFLICT (id) DO NOTHING`,
			room.ID, room.Name, room.CreatorID, room.CreatorRole, settings)
		if err != nil {
			fmt.Fprintf(os.Stderr, "insert room %s: %v\n", room.ID, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 0 {
			skipped++
			continue
		}
		inserted++
	}

	fmt.Printf("seeded rooms: total=%d inserted=%d skipped=%d errors=%d\n",
		total, inserted, skipped, errs)
}
