package db

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"reportdeck/models"
)

const (
	queryPrefix  = "query:"
	menuPrefix   = "menu:"
	widgetPrefix = "widget:"
)

// DB is the saved-query / menu / widget catalog. Records are administered
// externally (seed files, ops tooling); the service reads them to resolve
// query identifiers and build the navigation surface.
type DB struct {
	badgerDB *badger.DB
}

func New(dbPath string) (*DB, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // quiet badger's own logging

	badgerDB, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	return &DB{badgerDB: badgerDB}, nil
}

func (d *DB) Close() error {
	return d.badgerDB.Close()
}

func (d *DB) setJSON(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return d.badgerDB.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (d *DB) listJSON(prefix string, collect func(val []byte) error) error {
	return d.badgerDB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(collect); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *DB) StoreQuery(q models.Query) error {
	return d.setJSON(fmt.Sprintf("%s%d", queryPrefix, q.ID), q)
}

// GetQuery resolves a saved query by identifier. A missing or inactive
// query resolves to nil without error.
func (d *DB) GetQuery(id int) (*models.Query, error) {
	var q models.Query
	err := d.badgerDB.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(fmt.Sprintf("%s%d", queryPrefix, id)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &q)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load query %d: %w", id, err)
	}
	if !q.IsActive {
		return nil, nil
	}
	return &q, nil
}

func (d *DB) ListQueries() ([]models.Query, error) {
	var queries []models.Query
	err := d.listJSON(queryPrefix, func(val []byte) error {
		var q models.Query
		if err := json.Unmarshal(val, &q); err != nil {
			return err
		}
		if q.IsActive {
			queries = append(queries, q)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(queries, func(i, j int) bool { return queries[i].Name < queries[j].Name })
	return queries, nil
}

// ListQueriesByMenu returns the active queries attached to a menu item.
func (d *DB) ListQueriesByMenu(menuItemID int) ([]models.Query, error) {
	all, err := d.ListQueries()
	if err != nil {
		return nil, err
	}
	var queries []models.Query
	for _, q := range all {
		if q.MenuItemID == menuItemID {
			queries = append(queries, q)
		}
	}
	return queries, nil
}

func (d *DB) StoreMenuItem(item models.MenuItem) error {
	return d.setJSON(fmt.Sprintf("%s%d", menuPrefix, item.ID), item)
}

func (d *DB) ListMenuItems() ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := d.listJSON(menuPrefix, func(val []byte) error {
		var item models.MenuItem
		if err := json.Unmarshal(val, &item); err != nil {
			return err
		}
		if item.IsActive {
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].SortOrder != items[j].SortOrder {
			return items[i].SortOrder < items[j].SortOrder
		}
		return items[i].Name < items[j].Name
	})
	return items, nil
}

func (d *DB) StoreWidget(w models.DashboardWidget) error {
	return d.setJSON(fmt.Sprintf("%s%d", widgetPrefix, w.ID), w)
}

func (d *DB) ListWidgets() ([]models.DashboardWidget, error) {
	var widgets []models.DashboardWidget
	err := d.listJSON(widgetPrefix, func(val []byte) error {
		var w models.DashboardWidget
		if err := json.Unmarshal(val, &w); err != nil {
			return err
		}
		if w.IsActive {
			widgets = append(widgets, w)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(widgets, func(i, j int) bool {
		if widgets[i].PositionY != widgets[j].PositionY {
			return widgets[i].PositionY < widgets[j].PositionY
		}
		return widgets[i].PositionX < widgets[j].PositionX
	})
	return widgets, nil
}

// seedFile is the on-disk catalog definition format loaded at startup.
type seedFile struct {
	Queries   []models.Query           `json:"queries"`
	MenuItems []models.MenuItem        `json:"menu_items"`
	Widgets   []models.DashboardWidget `json:"widgets"`
}

// LoadCatalogFromDir reads *.json seed files and stores their records,
// returning how many records were loaded. A missing directory is not an
// error; the catalog just starts empty.
func (d *DB) LoadCatalogFromDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read catalog directory: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return loaded, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}

		var seed seedFile
		if err := json.Unmarshal(data, &seed); err != nil {
			return loaded, fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
		}

		for _, q := range seed.Queries {
			if err := d.StoreQuery(q); err != nil {
				return loaded, err
			}
			loaded++
		}
		for _, item := range seed.MenuItems {
			if err := d.StoreMenuItem(item); err != nil {
				return loaded, err
			}
			loaded++
		}
		for _, w := range seed.Widgets {
			if err := d.StoreWidget(w); err != nil {
				return loaded, err
			}
			loaded++
		}
	}

	return loaded, nil
}
