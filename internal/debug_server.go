package internal

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// InspectRow is one mirror record rendered by the inspector.
type InspectRow struct {
	Key       string
	Room      string
	Timestamp string
	MessageID string
	Sender    string
	Content   string
	Synced    string
}

type StatsProvider func() map[string]any

type pageData struct {
	Prefix string
	Items  []InspectRow
	Stats  map[string]any
}

const inspectPage = `<!DOCTYPE html>
<html>
<head>
<title>Mirror Inspector</title>
<style>
body { font-family: monospace; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
th { background: #f0f0f0; }
.stats { margin-bottom: 1em; color: #555; }
</style>
</head>
<body>
<h1>Mirror Inspector</h1>
<div class="stats">{{range $k, $v := .Stats}}{{$k}}={{$v}} {{end}}</div>
<form method="get">
  prefix: <input name="prefix" value="{{.Prefix}}"> <button>scan</button>
</form>
<table>
<tr><th>Room</th><th>Time</th><th>Id</th><th>Sender</th><th>Content</th><th>Synced</th></tr>
{{range .Items}}
<tr><td>{{.Room}}</td><td>{{.Timestamp}}</td><td>{{.MessageID}}</td><td>{{.Sender}}</td><td>{{.Content}}</td><td>{{.Synced}}</td></tr>
{{end}}
</table>
</body>
</html>`

// StartInspector serves a read-only HTML view over the mirror's badger
// keyspace on the given port. Development tooling only.
func StartInspector(db *badger.DB, port int, statsProvider StatsProvider) {
	mux := http.NewServeMux()
	tmpl := template.Must(template.New("inspect").Parse(inspectPage))

	mux.HandleFunc("/inspect", func(w http.ResponseWriter, r *http.Request) {
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			prefix = "msg:"
		}

		data := pageData{
			Prefix: prefix,
			Stats:  make(map[string]any),
		}
		if statsProvider != nil {
			data.Stats = statsProvider()
		}

		_ = db.View(func(txn *badger.Txn) error {
			it := txn.NewIterator(badger.DefaultIteratorOptions)
			defer it.Close()
			for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
				item := it.Item()
				_ = item.Value(func(val []byte) error {
					data.Items = append(data.Items, mapRow(string(item.Key()), val))
					return nil
				})
			}
			return nil
		})

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = tmpl.Execute(w, data)
	})

	go func() {
		_ = http.ListenAndServe(fmt.Sprintf("0.0.0.0:%d", port), mux)
	}()
}

func mapRow(key string, val []byte) InspectRow {
	row := InspectRow{
		Key:       key,
		Room:      "-",
		Timestamp: "--:--:--",
		MessageID: "--------",
		Sender:    "-",
		Content:   "Size: " + strconv.Itoa(len(val)) + " bytes",
		Synced:    "-",
	}

	parts := strings.SplitN(key, ":", 4)
	if len(parts) == 4 && parts[0] == "msg" {
		// The room segment is hex-encoded in the key.
		if room, err := hex.DecodeString(parts[1]); err == nil {
			row.Room = string(room)
		} else {
			row.Room = parts[1]
		}
		if tsNano, err := strconv.ParseInt(parts[2], 10, 64); err == nil {
			row.Timestamp = time.Unix(0, tsNano).Format("15:04:05")
		}
		row.MessageID = parts[3]
		if len(row.MessageID) > 8 {
			row.MessageID = row.MessageID[:8]
		}
	}

	var rec struct {
		SenderName string `json:"senderName"`
		Content    string `json:"content"`
		Synced     bool   `json:"synced"`
	}
	if err := json.Unmarshal(val, &rec); err == nil {
		row.Sender = rec.SenderName
		row.Content = rec.Content
		row.Synced = strconv.FormatBool(rec.Synced)
	}
	return row
}
