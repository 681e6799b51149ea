// Package store persists the room graph in an embedded bbolt database
// so a map built in one session is available in the next.
package store

import (
	"encoding/json"
	"fmt"

	bbolt "go.etcd.io/bbolt"

	"github.com/mudtools/msdpmap/internal/mapper/graph"
	"github.com/mudtools/msdpmap/internal/mapper/terrain"
)

var (
	bucketRooms = []byte("rooms")
	bucketMeta  = []byte("meta")

	keySchema = []byte("schema_version")
)

// schemaVersion guards against reading a store written by an
// incompatible release.
const schemaVersion = 1

// roomRecord is the stored form of one room.
type roomRecord struct {
	ID      string                `json:"id"`
	Name    string                `json:"name,omitempty"`
	Area    string                `json:"area,omitempty"`
	Terrain string                `json:"terrain,omitempty"`
	Exits   map[string]exitRecord `json:"exits,omitempty"`
}

type exitRecord struct {
	To        string `json:"to"`
	Confirmed bool   `json:"confirmed,omitempty"`
}

// Store wraps a bbolt database holding map snapshots.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database file and ensures the buckets and
// schema version exist.
//
// Postcondition: Returns a ready Store or a non-nil error; an existing
// file with a different schema version is refused.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketRooms); err != nil {
			return err
		}
		existing := meta.Get(keySchema)
		want := []byte{schemaVersion}
		if existing == nil {
			return meta.Put(keySchema, want)
		}
		if len(existing) != 1 || existing[0] != schemaVersion {
			return fmt.Errorf("unsupported schema version %v", existing)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: preparing %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.db.Path()
}

// SaveGraph writes every room in g in a single transaction, replacing
// previously stored versions of the same rooms. Rooms absent from g are
// left untouched; the graph only grows during a session, so a save is
// always a superset update.
func (s *Store) SaveGraph(g *graph.Graph) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRooms)
		for _, id := range g.RoomIDs() {
			room, ok := g.GetRoom(id)
			if !ok {
				continue
			}
			data, err := json.Marshal(recordFromRoom(room))
			if err != nil {
				return fmt.Errorf("store: encoding room %q: %w", id, err)
			}
			if err := b.Put([]byte(id), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadGraph reads all stored rooms into a fresh graph.
//
// Postcondition: Returns a non-nil graph; an empty store yields an
// empty graph.
func (s *Store) LoadGraph() (*graph.Graph, error) {
	var records []roomRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRooms).ForEach(func(k, v []byte) error {
			var rec roomRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("store: decoding room %q: %w", k, err)
			}
			records = append(records, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	g := graph.New()
	// Rooms first so every exit target resolves on the second pass.
	for _, rec := range records {
		if _, err := g.UpsertRoom(rec.ID, rec.Name, rec.Area, terrain.Category(rec.Terrain)); err != nil {
			return nil, fmt.Errorf("store: restoring room %q: %w", rec.ID, err)
		}
	}
	for _, rec := range records {
		for dirToken, exit := range rec.Exits {
			dir, ok := graph.ParseDirection(dirToken)
			if !ok {
				continue
			}
			if _, err := g.SetExit(rec.ID, dir, exit.To, exit.Confirmed); err != nil {
				return nil, fmt.Errorf("store: restoring exit %s/%s: %w", rec.ID, dirToken, err)
			}
		}
	}
	return g, nil
}

// RoomCount returns the number of stored rooms.
func (s *Store) RoomCount() (int, error) {
	var n int
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketRooms).Stats().KeyN
		return nil
	})
	return n, err
}

func recordFromRoom(r *graph.Room) roomRecord {
	rec := roomRecord{
		ID:      r.ID,
		Name:    r.Name,
		Area:    r.Area,
		Terrain: string(r.Terrain),
	}
	if len(r.Exits) > 0 {
		rec.Exits = make(map[string]exitRecord, len(r.Exits))
		for dir, e := range r.Exits {
			rec.Exits[string(dir)] = exitRecord{To: e.To, Confirmed: e.Confirmed}
		}
	}
	return rec
}
