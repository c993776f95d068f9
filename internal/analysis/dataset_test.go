package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeScenario(t *testing.T) {
	headers := []string{"region", "revenue"}
	rows := []Row{
		{"region": StringValue("east"), "revenue": NumberValue(100)},
		{"region": StringValue("west"), "revenue": NumberValue(200)},
	}
	p := Summarize(headers, rows, 2)

	require.Len(t, p.Columns, 2)
	assert.Equal(t, "region", p.Columns[0].Name)
	assert.Equal(t, Categorical, p.Columns[0].Kind)
	assert.Equal(t, Numeric, p.Columns[1].Kind)
	assert.Equal(t, 2, p.TotalRows)
	assert.Len(t, p.Sample, 2)
}

func TestSummarizeEmpty(t *testing.T) {
	p := Summarize(nil, []Row{{"a": NumberValue(1)}}, 1)
	assert.True(t, p.Empty())
	assert.Empty(t, p.Sample)

	p = Summarize([]string{"a"}, nil, 0)
	assert.True(t, p.Empty())
}

func TestSummarizeSampleCapAndDeclaredTotal(t *testing.T) {
	var rows []Row
	for i := 0; i < MaxAcceptedRows; i++ {
		rows = append(rows, Row{"n": NumberValue(float64(i))})
	}
	p := Summarize([]string{"n"}, rows, 37412)

	assert.Len(t, p.Sample, MaxSampleRows)
	assert.Equal(t, 37412, p.TotalRows)
	// profiling covers every supplied row, not just the sample
	assert.Equal(t, 99.0, p.Columns[0].Stats.Max)
}

func TestSampleJSONKeepsHeaderOrder(t *testing.T) {
	headers := []string{"zeta", "alpha"}
	rows := []Row{
		{"zeta": StringValue("z"), "alpha": NumberValue(1)},
		{"alpha": BoolValue(false)},
	}
	out, err := Summarize(headers, rows, 2).SampleJSON()
	require.NoError(t, err)

	assert.Less(t, strings.Index(out, `"zeta"`), strings.Index(out, `"alpha"`))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "z", decoded[0]["zeta"])
	assert.Equal(t, 1.0, decoded[0]["alpha"])
	assert.Equal(t, false, decoded[1]["alpha"])
	_, has := decoded[1]["zeta"]
	assert.False(t, has)
}

func TestSampleJSONEmpty(t *testing.T) {
	out, err := Summarize(nil, nil, 0).SampleJSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}

func TestValueJSONRoundTrip(t *testing.T) {
	var row Row
	require.NoError(t, json.Unmarshal([]byte(`{"a":1.5,"b":"x","c":true,"d":null,"e":[1,2]}`), &row))

	assert.Equal(t, NumberValue(1.5), row["a"])
	assert.Equal(t, StringValue("x"), row["b"])
	assert.Equal(t, BoolValue(true), row["c"])
	assert.True(t, row["d"].IsNull())
	assert.Equal(t, StringValue("[1,2]"), row["e"])

	b, err := json.Marshal(NumberValue(3))
	require.NoError(t, err)
	assert.Equal(t, "3", string(b))
}

func TestValueString(t *testing.T) {
	cases := map[Value]string{
		NumberValue(150):   "150",
		NumberValue(0.25):  "0.25",
		StringValue("abc"): "abc",
		BoolValue(false):   "false",
		NullValue():        "null",
	}
	for v, want := range cases {
		assert.Equal(t, want, v.String(), fmt.Sprintf("kind %s", v.Kind()))
	}
}
