package main

import (
	"chat-relay/repositories"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", os.Getenv("BADGER_FILEPATH"), "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan, e.g. user:, chat:, member:, bot:")
	withIndexes := flag.Bool("indexes", false, "Also list idx: entries")
	flag.Parse()

	if *dbPath == "" {
		log.Fatal("Missing -db or BADGER_FILEPATH")
	}
	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Kind", "Id", "Time", "Detail", "Key"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())
			if !*withIndexes && strings.HasPrefix(key, "idx:") {
				continue
			}
			err := item.Value(func(v []byte) error {
				record := repositories.Describe(key, v)
				at := "--"
				if !record.At.IsZero() {
					at = record.At.Format(time.DateTime)
				}
				table.Append([]string{record.Kind, record.EntityID, at, record.Detail, key})
				rows++
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	table.Render()
	fmt.Printf("%d entries under %q\n", rows, *prefix)
}

// openDB opens read-only so the inspector can run next to a live relay.
func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithLogger(nil).
		WithBypassLockGuard(true)
	return badger.Open(opts)
}
