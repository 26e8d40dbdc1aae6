// Command query-store inspects a strata snapshot database. It uses the
// pure-Go sqlite driver so it builds and runs without cgo, against the same
// file the engine writes through mattn/go-sqlite3.
package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

func usage() {
	fmt.Println("Usage: query-store <db> [snapshots | facts <snapshot-id> <predicate> | counts <snapshot-id>]")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := sql.Open("sqlite", os.Args[1])
	if err != nil {
		fmt.Printf("Error opening DB: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	cmd := "snapshots"
	if len(os.Args) >= 3 {
		cmd = os.Args[2]
	}

	switch cmd {
	case "snapshots":
		listSnapshots(db)

	case "facts":
		if len(os.Args) < 5 {
			fmt.Println("Usage: query-store <db> facts <snapshot-id> <predicate>")
			os.Exit(1)
		}
		id := parseID(os.Args[3])
		dumpFacts(db, id, os.Args[4])

	case "counts":
		if len(os.Args) < 4 {
			fmt.Println("Usage: query-store <db> counts <snapshot-id>")
			os.Exit(1)
		}
		id := parseID(os.Args[3])
		countFacts(db, id)

	default:
		usage()
		os.Exit(1)
	}
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		fmt.Printf("Bad snapshot id %q: %v\n", s, err)
		os.Exit(1)
	}
	return id
}

func listSnapshots(db *sql.DB) {
	rows, err := db.Query(`SELECT id, run_id, program_hash, rule_count, group_count,
		pass_count, tuple_count, new_tuples, duration_ms, created_at
		FROM snapshots ORDER BY id DESC`)
	if err != nil {
		fmt.Printf("Error querying snapshots: %v\n", err)
		return
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var id, ruleCount, groupCount, passCount, tupleCount, newTuples, durationMS int64
		var runID, hash, createdAt string
		if err := rows.Scan(&id, &runID, &hash, &ruleCount, &groupCount, &passCount,
			&tupleCount, &newTuples, &durationMS, &createdAt); err != nil {
			fmt.Printf("Scan error: %v\n", err)
			continue
		}
		if len(hash) > 12 {
			hash = hash[:12]
		}
		n++
		fmt.Printf("%d. %s  run %s\n", id, createdAt, runID)
		fmt.Printf("   program %s  %d rules, %d groups, %d passes\n", hash, ruleCount, groupCount, passCount)
		fmt.Printf("   %d tuples (%d derived), %dms\n", tupleCount, newTuples, durationMS)
	}
	if n == 0 {
		fmt.Println("No snapshots.")
	}
}

// dumpFacts prints the stored facts for one predicate in source syntax.
// The store keys predicates as "name/arity"; a bare name matches every
// arity of that name.
func dumpFacts(db *sql.DB, snapshotID int64, predicate string) {
	rows, err := db.Query(`SELECT predicate, args FROM snapshot_facts
		WHERE snapshot_id = ? AND (predicate = ? OR predicate LIKE ? || '/%')
		ORDER BY predicate, args`, snapshotID, predicate, predicate)
	if err != nil {
		fmt.Printf("Error querying facts: %v\n", err)
		return
	}
	defer rows.Close()

	n := 0
	for rows.Next() {
		var pred, args string
		if err := rows.Scan(&pred, &args); err != nil {
			fmt.Printf("Scan error: %v\n", err)
			continue
		}
		n++
		name := pred
		if i := strings.IndexByte(name, '/'); i >= 0 {
			name = name[:i]
		}
		fmt.Printf("%s(%s).\n", name, args)
	}
	if n == 0 {
		fmt.Printf("No facts for %q in snapshot %d.\n", predicate, snapshotID)
		return
	}
	fmt.Printf("\nTotal: %d\n", n)
}

func countFacts(db *sql.DB, snapshotID int64) {
	rows, err := db.Query(`SELECT predicate, COUNT(*) FROM snapshot_facts
		WHERE snapshot_id = ? GROUP BY predicate ORDER BY predicate`, snapshotID)
	if err != nil {
		fmt.Printf("Error querying counts: %v\n", err)
		return
	}
	defer rows.Close()

	total := 0
	for rows.Next() {
		var pred string
		var count int
		if err := rows.Scan(&pred, &count); err != nil {
			fmt.Printf("Scan error: %v\n", err)
			continue
		}
		fmt.Printf("%-20s %d\n", pred, count)
		total += count
	}
	fmt.Printf("%-20s %d\n", "total", total)
}
