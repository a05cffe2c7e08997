package timelapser

import (
	"database/sql"
	"fmt"
	"image"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Catalog records every run and every saved frame in a SQLite database
type Catalog struct {
	db *sql.DB
}

// Run describes one invocation of the capture loop
type Run struct {
	ID        int64
	Website   string
	Canvas    int
	Region    image.Rectangle
	Directory string
	StartedAt time.Time
}

// Frame describes one saved frame
type Frame struct {
	Sequence   int
	Filename   string
	SHA1       string
	CapturedAt time.Time
}

// OpenCatalog opens or creates the catalog in the named file
func OpenCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS run (id INTEGER PRIMARY KEY NOT NULL, website TEXT NOT NULL, canvas INTEGER NOT NULL, x INTEGER NOT NULL, y INTEGER NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, directory TEXT NOT NULL, started_at DATETIME NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS frame (id INTEGER PRIMARY KEY NOT NULL, run_id INTEGER NOT NULL, sequence INTEGER NOT NULL, filename TEXT NOT NULL, sha1 TEXT NOT NULL, captured_at DATETIME NOT NULL, UNIQUE(run_id, sequence), FOREIGN KEY(run_id) REFERENCES run(id))"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the underlying database
func (c *Catalog) Close() error {
	return c.db.Close()
}

// AddRun records the start of a run and returns its id
func (c *Catalog) AddRun(r Run) (int64, error) {
	result, err := c.db.Exec("INSERT INTO run (website, canvas, x, y, width, height, directory, started_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)", r.Website, r.Canvas, r.Region.Min.X, r.Region.Min.Y, r.Region.Dx(), r.Region.Dy(), r.Directory, r.StartedAt.UTC())
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// AddFrame records a saved frame against a run. A frame with the same
// sequence number in the same run is replaced.
func (c *Catalog) AddFrame(run int64, f Frame) error {
	if _, err := c.db.Exec("INSERT OR REPLACE INTO frame (run_id, sequence, filename, sha1, captured_at) VALUES (?, ?, ?, ?, ?)", run, f.Sequence, f.Filename, f.SHA1, f.CapturedAt.UTC()); err != nil {
		return err
	}
	return nil
}

// Runs returns every recorded run, oldest first
func (c *Catalog) Runs() ([]Run, error) {
	rows, err := c.db.Query("SELECT id, website, canvas, x, y, width, height, directory, started_at FROM run ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var x, y, w, h int
		if err := rows.Scan(&r.ID, &r.Website, &r.Canvas, &x, &y, &w, &h, &r.Directory, &r.StartedAt); err != nil {
			return nil, err
		}
		r.Region = image.Rect(x, y, x+w, y+h)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Frames returns the frames saved by a run in sequence order
func (c *Catalog) Frames(run int64) ([]Frame, error) {
	rows, err := c.db.Query("SELECT sequence, filename, sha1, captured_at FROM frame WHERE run_id = ? ORDER BY sequence", run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var frames []Frame
	for rows.Next() {
		var f Frame
		if err := rows.Scan(&f.Sequence, &f.Filename, &f.SHA1, &f.CapturedAt); err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
	return frames, rows.Err()
}
