package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var medicinesBucket = []byte("medicines")

// ErrNotFound is returned by Find when no record matches the queried name.
var ErrNotFound = errors.New("medicine not found")

// Medicine is one read-only record of the drug dataset.
type Medicine struct {
	ChineseName string `json:"chinese_name"`
	EnglishName string `json:"english_name"`
	Indication  string `json:"indication"`
}

type MedicineStore struct {
	db *bolt.DB
}

func NewMedicineStore(path string) (*MedicineStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(medicinesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating medicines bucket: %w", err)
	}

	return &MedicineStore{db: db}, nil
}

// Find returns the record matching name by Chinese or English name.
// Matching is case-insensitive on both names; the first record stored
// under a name wins when the dataset has duplicates.
func (s *MedicineStore) Find(name string) (*Medicine, error) {
	key := normalizeName(name)
	if key == "" {
		return nil, ErrNotFound
	}

	var m Medicine
	found := false
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(medicinesBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &m)
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return &m, nil
}

// Put indexes one record under both its Chinese and English names.
// An existing entry for a name is kept, preserving store order for duplicates.
func (s *MedicineStore) Put(m Medicine) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putMedicine(tx, m)
	})
}

// Import bulk-loads records in a single transaction. Used by the startup
// provisioning step.
func (s *MedicineStore) Import(records []Medicine) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, m := range records {
			if err := putMedicine(tx, m); err != nil {
				return err
			}
		}
		return nil
	})
}

// Count returns the number of indexed name keys.
func (s *MedicineStore) Count() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(medicinesBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *MedicineStore) Close() error {
	return s.db.Close()
}

func putMedicine(tx *bolt.Tx, m Medicine) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	b := tx.Bucket(medicinesBucket)
	for _, name := range []string{m.ChineseName, m.EnglishName} {
		key := normalizeName(name)
		if key == "" {
			continue
		}
		if b.Get([]byte(key)) != nil {
			continue
		}
		if err := b.Put([]byte(key), data); err != nil {
			return err
		}
	}
	return nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
