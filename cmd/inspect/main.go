// Command inspect dumps the stored groups or messages of a campus-chat
// Badger database as a table. Read-only, safe to run next to a live server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/database"
	"github.com/olekukonko/tablewriter"
)

func main() {
	dbPath := flag.String("db", database.DefaultPath, "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan (msg: or group:)")
	flag.Parse()

	db, err := openDB(*dbPath)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	color.Cyan.Printf("Scanning %s with prefix %q\n", *dbPath, *prefix)

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Group", "Sender", "Content", "Edited", "Created At"})
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

			// Secondary indexes carry no payload worth printing
			key := string(item.Key())
			if strings.HasPrefix(key, "msgid:") || strings.HasPrefix(key, "member:") {
				continue
			}

			err := item.Value(func(v []byte) error {
				table.Append(toRow(key, v))
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
		log.Fatal("Scan failed: ", err)
	}

	table.Render()
	color.Green.Printf("%d records\n", rows)
}

func toRow(key string, value []byte) []string {
	var record struct {
		GroupID    string `json:"group_id"`
		Name       string `json:"name"`
		SenderName string `json:"sender_name"`
		Content    string `json:"content"`
		Edited     bool   `json:"edited"`
		CreatedAt  int64  `json:"created_at"`
	}
	if err := json.Unmarshal(value, &record); err != nil {
		return []string{key, "", "", fmt.Sprintf("unreadable: %v", err), "", ""}
	}

	group := record.GroupID
	if group == "" {
		// Group records carry their name instead of a parent id
		group = record.Name
	}
	return []string{
		key,
		group,
		record.SenderName,
		record.Content,
		fmt.Sprintf("%t", record.Edited),
		time.Unix(0, record.CreatedAt).UTC().Format(time.RFC3339),
	}
}

func openDB(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	return badger.Open(opts)
}
