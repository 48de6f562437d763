package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bytedance/sonic"
)

const fileStampLayout = "20060102_150405"

// WriteCSV writes three sections: run parameters, statistics, then one row
// per order in insertion order.
func WriteCSV(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"SYSTEM PARAMETERS"},
		{"Producers", strconv.Itoa(r.Parameters.Producers)},
		{"Consumers", strconv.Itoa(r.Parameters.Consumers)},
		{"Duration (seconds)", fmt.Sprint(r.durationLabel())},
		{"Exported at", r.Parameters.ExportedAt.Format("02/01/2006 15:04:05")},
		{},
		{"STATISTICS"},
		{"Total created", strconv.FormatInt(r.Stats.TotalCreated, 10)},
		{"Total processed", strconv.FormatInt(r.Stats.TotalProcessed, 10)},
		{"In queue", strconv.Itoa(r.Stats.InQueue)},
		{"In preparation", strconv.Itoa(r.Stats.InPreparation)},
		{},
		{"ORDER QUEUE"},
		{"ID", "Table", "Item", "Status", "Producer", "Consumer", "Timestamp"},
	}
	for _, o := range r.Orders {
		consumer := "N/A"
		if o.ConsumerID != nil {
			consumer = strconv.Itoa(*o.ConsumerID)
		}
		rows = append(rows, []string{
			strconv.FormatInt(o.ID, 10),
			strconv.Itoa(o.Table),
			o.Item,
			string(o.Status),
			strconv.Itoa(o.ProducerID),
			consumer,
			o.CreatedAt.Local().Format("02/01/2006 15:04:05"),
		})
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func WriteJSON(w io.Writer, r Report) error {
	b, err := sonic.ConfigStd.MarshalIndent(r.toJSON(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

// ExportFiles writes orders_<stamp>.csv and orders_<stamp>.json into dir and
// returns their paths.
func ExportFiles(dir string, r Report) (csvPath, jsonPath string, err error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("export dir: %w", err)
	}
	stamp := r.Parameters.ExportedAt.Local().Format(fileStampLayout)
	csvPath = filepath.Join(dir, "orders_"+stamp+".csv")
	jsonPath = filepath.Join(dir, "orders_"+stamp+".json")

	if err := writeFile(csvPath, func(w io.Writer) error { return WriteCSV(w, r) }); err != nil {
		return "", "", err
	}
	if err := writeFile(jsonPath, func(w io.Writer) error { return WriteJSON(w, r) }); err != nil {
		return "", "", err
	}
	return csvPath, jsonPath, nil
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
