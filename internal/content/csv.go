package content

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"staticcms/internal/apperr"
)

// fixedArticleHeaders and fixedEnumHeaders are the canonical leading columns
// written back to an index. Any further columns from the source file follow
// in their original order.
var (
	fixedEnumHeaders    = []string{colID, colNameJa, colNameEn}
	fixedArticleHeaders = []string{colID, colNameJa, colNameEn, colThumbnail, colDescJa, colDescEn}
)

// readIndex parses a directory's CSV index. The directory type is decided by
// the header: a thumbnail column marks an article directory.
func readIndex(name, dirPath, csvPath string) (Directory, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return Directory{}, fmt.Errorf("failed to open %s: %w", csvPath, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return Directory{}, fmt.Errorf("failed to parse %s: %w", csvPath, err)
	}
	if len(records) == 0 {
		return Directory{}, apperr.New(apperr.KindValidation, "index %s has no header row", csvPath)
	}

	header := records[0]
	typ := TypeEnum
	for _, col := range header {
		if strings.EqualFold(strings.TrimSpace(col), colThumbnail) {
			typ = TypeArticle
			break
		}
	}

	dir := Directory{
		Name:    name,
		Path:    dirPath,
		Type:    typ,
		CSVPath: csvPath,
	}

	fixed := fixedColumnSet(typ)
	for _, col := range header {
		if _, ok := fixed[normalizeHeader(col)]; !ok {
			dir.extraHeaders = append(dir.extraHeaders, strings.TrimSpace(col))
		}
	}

	for i, record := range records[1:] {
		row, err := rowFromRecord(header, record)
		if err != nil {
			return Directory{}, fmt.Errorf("row %d of %s: %w", i+2, csvPath, err)
		}
		dir.Rows = append(dir.Rows, row)
	}

	return dir, nil
}

// WriteRows rewrites a directory's CSV index from its in-memory rows. The
// header keeps the canonical fixed columns first and the directory's
// additional columns in their original order.
func (s *Store) WriteRows(dir *Directory) error {
	if dir == nil || dir.CSVPath == "" {
		return apperr.New(apperr.KindValidation, "content directory has no CSV index")
	}

	header := append([]string{}, fixedHeaders(dir.Type)...)
	header = append(header, dir.extraHeaders...)

	records := make([][]string, 0, len(dir.Rows)+1)
	records = append(records, header)
	for _, row := range dir.Rows {
		if strings.TrimSpace(row.ID) == "" {
			return apperr.New(apperr.KindValidation, "row is missing an id")
		}
		records = append(records, recordFromRow(dir, row))
	}

	tmp := dir.CSVPath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", tmp, err)
	}

	writer := csv.NewWriter(f)
	if err := writer.WriteAll(records); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to flush %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, dir.CSVPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", dir.CSVPath, err)
	}

	s.logger.Info("Index written", "dir", dir.Name, "rows", len(dir.Rows))
	return nil
}

// FindRow returns the row with the given id, if present.
func (d *Directory) FindRow(id string) (Row, bool) {
	for _, row := range d.Rows {
		if row.ID == id {
			return row, true
		}
	}
	return Row{}, false
}

// UpsertRow replaces the row with a matching id or appends a new one.
func (d *Directory) UpsertRow(row Row) {
	for i := range d.Rows {
		if d.Rows[i].ID == row.ID {
			d.Rows[i] = row
			return
		}
	}
	d.Rows = append(d.Rows, row)
}

func fixedHeaders(typ DirectoryType) []string {
	if typ == TypeArticle {
		return fixedArticleHeaders
	}
	return fixedEnumHeaders
}

func fixedColumnSet(typ DirectoryType) map[string]struct{} {
	set := make(map[string]struct{})
	for _, col := range fixedHeaders(typ) {
		set[normalizeHeader(col)] = struct{}{}
	}
	return set
}

func normalizeHeader(col string) string {
	return strings.ToLower(strings.TrimSpace(col))
}

func rowFromRecord(header, record []string) (Row, error) {
	row := Row{Additional: make(map[string]string)}
	for i, col := range header {
		if i >= len(record) {
			break
		}
		value := record[i]
		switch normalizeHeader(col) {
		case colID:
			row.ID = value
		case normalizeHeader(colNameJa):
			row.NameJa = value
		case normalizeHeader(colNameEn):
			row.NameEn = value
		case normalizeHeader(colThumbnail):
			row.Thumbnail = value
		case normalizeHeader(colDescJa):
			row.DescJa = value
		case normalizeHeader(colDescEn):
			row.DescEn = value
		default:
			row.Additional[strings.TrimSpace(col)] = value
		}
	}
	if strings.TrimSpace(row.ID) == "" {
		return Row{}, apperr.New(apperr.KindValidation, "record is missing an id")
	}
	return row, nil
}

func recordFromRow(dir *Directory, row Row) []string {
	record := []string{row.ID, row.NameJa, row.NameEn}
	if dir.Type == TypeArticle {
		record = append(record, row.Thumbnail, row.DescJa, row.DescEn)
	}
	for _, col := range dir.extraHeaders {
		record = append(record, row.Additional[col])
	}
	return record
}
