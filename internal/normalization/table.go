package normalization

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

// ErrNoHeader is returned when a table has no recognizable header row.
var ErrNoHeader = errors.New("table has no recognizable header")

// headerAliases maps a folded header name to a RawRecord field.
// "price" is resolved separately because broker exports repeat it.
var headerAliases = map[string]string{
	"ticket": FieldTicket,
	"order":  FieldTicket,

	"item":       FieldInstrument,
	"pair":       FieldInstrument,
	"symbol":     FieldInstrument,
	"instrument": FieldInstrument,
	"銘柄":         FieldInstrument,

	"type":  FieldSide,
	"side":  FieldSide,
	"ポジション": FieldSide,
	"方向":    FieldSide,

	"size":   FieldVolume,
	"lot":    FieldVolume,
	"lots":   FieldVolume,
	"qty":    FieldVolume,
	"volume": FieldVolume,
	"数量":     FieldVolume,
	"取引量":    FieldVolume,

	"opentime":  FieldOpenTime,
	"entrytime": FieldOpenTime,

	"openprice":  FieldOpenPrice,
	"entry":      FieldOpenPrice,
	"entryprice": FieldOpenPrice,

	"closetime": FieldCloseTime,
	"exittime":  FieldCloseTime,
	"time":      FieldCloseTime,
	"datetime":  FieldCloseTime,
	"日時":        FieldCloseTime,

	"closeprice": FieldClosePrice,
	"exit":       FieldClosePrice,
	"exitprice":  FieldClosePrice,

	"s/l":       FieldStop,
	"sl":        FieldStop,
	"stop":      FieldStop,
	"stopprice": FieldStop,

	"t/p":         FieldTarget,
	"tp":          FieldTarget,
	"target":      FieldTarget,
	"targetprice": FieldTarget,

	"commission":  FieldCommission,
	"commissions": FieldCommission,
	"fee":         FieldCommission,
	"fees":        FieldCommission,
	"手数料":         FieldCommission,

	"swap":  FieldSwap,
	"swaps": FieldSwap,
	"スワップ":  FieldSwap,

	"profit":  FieldProfit,
	"profit¥": FieldProfit,
	"pl":      FieldProfit,
	"p/l":     FieldProfit,
	"損益":      FieldProfit,
	"損益円":     FieldProfit,

	"pips":   FieldPips,
	"pip":    FieldPips,
	"損益pips": FieldPips,

	"setup":    FieldTag,
	"tag":      FieldTag,
	"strategy": FieldTag,
	"戦略":       FieldTag,

	"comment": FieldComment,
	"memo":    FieldComment,
	"メモ":      FieldComment,
}

// foldHeader lower-cases a header cell, folds full-width characters and
// drops spaces and parentheses, so "Open Time", "ＯｐｅｎＴｉｍｅ" and
// "Profit(¥)" land on their aliases.
func foldHeader(s string) string {
	s = width.Fold.String(strings.TrimPrefix(s, "\ufeff"))
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '\t', '(', ')', '（', '）', '　':
			continue
		case '／':
			b.WriteRune('/')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// mapHeader resolves each column to a field name ("" for ignored columns).
func mapHeader(header []string) ([]string, error) {
	fields := make([]string, len(header))
	assigned := make(map[string]bool)
	var priceCols []int

	for i, h := range header {
		key := foldHeader(h)
		if key == "price" {
			priceCols = append(priceCols, i)
			continue
		}
		field, ok := headerAliases[key]
		if !ok || assigned[field] {
			continue
		}
		fields[i] = field
		assigned[field] = true
	}

	// A repeated "price" header means entry then exit; a single one is
	// whichever price is still unassigned, exit first.
	switch {
	case len(priceCols) >= 2:
		if !assigned[FieldOpenPrice] {
			fields[priceCols[0]] = FieldOpenPrice
			assigned[FieldOpenPrice] = true
		}
		if !assigned[FieldClosePrice] {
			fields[priceCols[1]] = FieldClosePrice
			assigned[FieldClosePrice] = true
		}
	case len(priceCols) == 1:
		if !assigned[FieldClosePrice] {
			fields[priceCols[0]] = FieldClosePrice
			assigned[FieldClosePrice] = true
		} else if !assigned[FieldOpenPrice] {
			fields[priceCols[0]] = FieldOpenPrice
			assigned[FieldOpenPrice] = true
		}
	}

	if len(assigned) == 0 {
		return nil, ErrNoHeader
	}
	return fields, nil
}

// detectDelimiter picks tab or comma by counting both in the header line.
func detectDelimiter(headerLine string) rune {
	if strings.Count(headerLine, "\t") > strings.Count(headerLine, ",") {
		return '\t'
	}
	return ','
}

// decodeReader transparently converts UTF-16 input (with BOM) to UTF-8.
func decodeReader(r io.Reader) *bufio.Reader {
	br := bufio.NewReader(r)
	if b, _ := br.Peek(2); len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF)) {
		tr := transform.NewReader(br, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
		return bufio.NewReader(tr)
	}
	return br
}

// ParseTable reads a delimited table with a header row into raw records.
// Blank rows are skipped. Rows shorter than the header leave the missing
// fields empty.
func ParseTable(r io.Reader) ([]RawRecord, error) {
	br := decodeReader(r)

	headerLine, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read header: %w", err)
	}
	headerLine = strings.TrimPrefix(headerLine, "\ufeff")
	if strings.TrimSpace(headerLine) == "" {
		return nil, ErrNoHeader
	}

	cr := csv.NewReader(io.MultiReader(strings.NewReader(headerLine), br))
	cr.Comma = detectDelimiter(headerLine)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("parse header: %w", err)
	}
	fields, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var records []RawRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records, fmt.Errorf("parse table: %w", err)
		}
		line, _ := cr.FieldPos(0)

		rec := RawRecord{Source: SourceTable, Line: line}
		for i, value := range row {
			if i < len(fields) && fields[i] != "" {
				rec.set(fields[i], strings.TrimSpace(value))
			}
		}
		if rec.isBlank() {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// ParseTableBytes is ParseTable over an in-memory upload.
func ParseTableBytes(data []byte) ([]RawRecord, error) {
	return ParseTable(bytes.NewReader(data))
}
