package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/interleads/travelagency-system-sub001/pkg/csvimport"
)

// global flags (parsed in main)
var verbose bool

func logV(format string, args ...any) {
	if verbose {
		log.Printf(format, args...)
	}
}

func mustInitDBFromEnv() *gorm.DB {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatalf("DB_DSN must be set in environment to run this tool")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	return gdb
}

// Main: scans a drop directory for sales CSV exports, imports each one and
// renames it .done (or .err) so a re-run never double-imports. Optional
// watch mode picks up files as they land.
func main() {
	dirFlag := flag.String("dir", "", "directory to scan for sales CSV exports (default $IMPORT_DIR or ./import)")
	watch := flag.Bool("watch", false, "Watch directory for new files")
	dryRun := flag.Bool("dry-run", false, "Parse and report only, no DB writes")
	flag.BoolVar(&verbose, "verbose", false, "Verbose per-file logging")
	flag.Parse()

	_ = godotenv.Load()
	dir := *dirFlag
	if dir == "" {
		dir = os.Getenv("IMPORT_DIR")
	}
	if dir == "" {
		dir = "import"
	}

	if *dryRun {
		log.Printf("Dry-run: scanning %s (no DB interaction)", dir)
		for _, name := range listCSVFiles(dir) {
			f, err := os.Open(filepath.Join(dir, name))
			if err != nil {
				log.Printf("ERROR open %s: %v", name, err)
				continue
			}
			rows, rowErrs, perr := csvimport.ParseFile(f)
			f.Close()
			if perr != nil {
				log.Printf("ERROR parse %s: %v", name, perr)
				continue
			}
			log.Printf("%s: %d rows ok, %d rejected", name, len(rows), len(rowErrs))
			for _, e := range rowErrs {
				logV("  %s", e)
			}
		}
		return
	}

	db := mustInitDBFromEnv()
	imp := csvimport.New(db)

	files := listCSVFiles(dir)
	log.Printf("Scanning %d files in %s", len(files), dir)
	for _, name := range files {
		processFile(imp, dir, name)
	}

	if *watch {
		if err := watchDirectory(imp, dir); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func listCSVFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() || !isCSV(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

// isCSV accepts fresh exports only; processed files carry .done/.err suffixes.
func isCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

// processFile imports one export and renames it so it is never re-read.
// Files are handled one at a time: rows inside a file are sequential by
// contract, and per-file ordering keeps the logs attributable.
func processFile(imp *csvimport.Importer, dir, name string) {
	path := filepath.Join(dir, name)
	f, err := os.Open(path)
	if err != nil {
		log.Printf("ERROR open %s: %v", name, err)
		return
	}
	report, err := imp.Run(f)
	f.Close()
	if err != nil {
		log.Printf("ERROR import %s: %v", name, err)
		if rerr := os.Rename(path, path+".err"); rerr != nil {
			log.Printf("WARN rename %s: %v", name, rerr)
		}
		return
	}
	log.Printf("DONE %s run=%s imported=%d errors=%d suppliers_created=%d",
		name, report.RunID, report.Imported, len(report.Errors), report.SuppliersCreated)
	for _, e := range report.Errors {
		logV("  %s", e)
	}
	if err := os.Rename(path, path+".done"); err != nil {
		log.Printf("WARN rename %s: %v", name, err)
	}
}

func watchDirectory(imp *csvimport.Importer, dir string) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", dir)

	fileCh := make(chan string, 256)
	go func() {
		// simple debounce map of pending files, so a file still being
		// copied in settles before we read it
		pending := map[string]time.Time{}
		ticker := time.NewTicker(250 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					close(fileCh)
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
					name := filepath.Base(ev.Name)
					if !isCSV(name) {
						continue
					}
					pending[name] = time.Now()
				}
			case <-ticker.C:
				now := time.Now()
				for name, t := range pending {
					if now.Sub(t) > 500*time.Millisecond { // stable
						fileCh <- name
						delete(pending, name)
					}
				}
			case err, ok := <-w.Errors:
				if !ok {
					close(fileCh)
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()

	for name := range fileCh {
		processFile(imp, dir, name)
	}
	return nil
}
