package normalization

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

func TestParseTable_BrokerExportWithRepeatedPrice(t *testing.T) {
	input := "Ticket,Open Time,Type,Size,Item,Price,S/L,T/P,Close Time,Price,Commission,Swap,Profit\n" +
		"1001,2024.01.08 09:15:00,buy,1.00,usdjpy,150.000,0.000,0.000,2024.01.08 10:45:00,150.300,0,0,30000\n" +
		"\n" +
		"1002,2024.01.09 16:00:00,sell,0.50,EURUSD,1.09500,1.09800,1.09000,2024.01.09 18:30:00,1.09300,-3.5,0,10000\n"

	records, err := ParseTable(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	assert.Equal(t, SourceTable, first.Source)
	assert.Equal(t, 2, first.Line)
	assert.Equal(t, "1001", first.Ticket)
	assert.Equal(t, "usdjpy", first.Instrument)
	assert.Equal(t, "buy", first.Side)
	assert.Equal(t, "150.000", first.OpenPrice)
	assert.Equal(t, "150.300", first.ClosePrice)
	assert.Equal(t, "2024.01.08 10:45:00", first.CloseTime)
	assert.Equal(t, "0.000", first.Stop)

	second := records[1]
	assert.Equal(t, 4, second.Line)
	assert.Equal(t, "1.09500", second.OpenPrice)
	assert.Equal(t, "1.09300", second.ClosePrice)
	assert.Equal(t, "-3.5", second.Commission)
}

func TestParseTable_TabDelimited(t *testing.T) {
	input := "symbol\tside\tlots\tentry\texit\tclose time\tsetup\n" +
		"GBPJPY\tlong\t0.2\t190.10\t190.55\t2024-02-01 12:00\tBreakout\n"

	records, err := ParseTable(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "GBPJPY", records[0].Instrument)
	assert.Equal(t, "0.2", records[0].Volume)
	assert.Equal(t, "190.10", records[0].OpenPrice)
	assert.Equal(t, "190.55", records[0].ClosePrice)
	assert.Equal(t, "Breakout", records[0].Tag)
}

func TestParseTable_FullWidthAndJapaneseHeaders(t *testing.T) {
	input := "銘柄,ポジション,数量,ＯｐｅｎＴｉｍｅ,日時,損益（円）,メモ\n" +
		"USDJPY,買い,1,2024-01-08 09:00,2024-01-08 10:00,\"1,500\",朝\n"

	records, err := ParseTable(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "USDJPY", records[0].Instrument)
	assert.Equal(t, "2024-01-08 09:00", records[0].OpenTime)
	assert.Equal(t, "2024-01-08 10:00", records[0].CloseTime)
	assert.Equal(t, "1,500", records[0].Profit)
	assert.Equal(t, "朝", records[0].Comment)
}

func TestParseTable_UTF16WithBOM(t *testing.T) {
	text := "Item,Type,Size,Close Time,Profit\r\nEURUSD,sell,1,2024-03-01 10:00,120\r\n"
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(text)
	require.NoError(t, err)

	records, err := ParseTableBytes([]byte(encoded))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "EURUSD", records[0].Instrument)
	assert.Equal(t, "120", records[0].Profit)
}

func TestParseTable_UTF8BOM(t *testing.T) {
	records, err := ParseTable(strings.NewReader("\ufeffItem,Type,Size,Profit\nEURUSD,buy,1,5\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "EURUSD", records[0].Instrument)
}

func TestParseTable_SinglePriceColumnIsClose(t *testing.T) {
	records, err := ParseTable(strings.NewReader("item,type,size,open price,price\nEURUSD,buy,1,1.1,1.2\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "1.1", records[0].OpenPrice)
	assert.Equal(t, "1.2", records[0].ClosePrice)
}

func TestParseTable_ShortRowsAndUnknownColumns(t *testing.T) {
	input := "item,type,size,unknown,profit\nEURUSD,buy,1\n,,,,\n"

	records, err := ParseTable(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Empty(t, records[0].Profit)
}

func TestParseTable_NoHeader(t *testing.T) {
	for name, input := range map[string]string{
		"empty":        "",
		"unrecognized": "foo,bar\n1,2\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTable(strings.NewReader(input))
			assert.True(t, errors.Is(err, ErrNoHeader), "got %v", err)
		})
	}
}

func TestDetectDelimiter(t *testing.T) {
	assert.Equal(t, '\t', detectDelimiter("a\tb\tc"))
	assert.Equal(t, ',', detectDelimiter("a,b,c"))
	assert.Equal(t, ',', detectDelimiter("single"))
}
