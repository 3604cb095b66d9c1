package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
)

// inspector dumps the chat keyspace as a table for local debugging.
// It opens the store read-only so it can run next to a live server.
func main() {
	dbPath := flag.String("db", "/tmp/chat-server/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (user:, session:, member:, msg:)")
	limit := flag.Int("limit", 200, "Maximum rows to print")
	flag.Parse()

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	color.New(color.BgBlack, color.FgGreen).Printf("  ====== chat keyspace %s ======\n", *prefix)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Kind", "Timestamp", "Entity ID", "Value"})
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
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes) && rows < *limit; it.Next() {
			item := it.Item()
			err := item.Value(func(v []byte) error {
				table.Append(describe(string(item.Key()), v))
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
		log.Fatal("Error while scanning: ", err)
	}

	table.Render()
	fmt.Printf("\n%d row(s)\n", rows)
}

// describe splits a key into display columns. Message keys carry a
// nanosecond timestamp in their second segment; other kinds do not.
func describe(key string, val []byte) []string {
	parts := strings.Split(key, ":")
	kind := strings.ToUpper(parts[0])
	timestamp := "--:--:--"
	entityID := "--------"

	switch parts[0] {
	case "msg":
		if len(parts) >= 3 {
			entityID = shorten(parts[1])
			if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
				timestamp = time.Unix(0, tsNano).Format("15:04:05")
			}
		}
	default:
		if len(parts) >= 2 {
			entityID = shorten(parts[len(parts)-1])
		}
	}

	detail := string(val)
	if len(detail) > 80 {
		detail = detail[:80] + "..."
	}
	return []string{key, kind, timestamp, entityID, detail}
}

func shorten(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
