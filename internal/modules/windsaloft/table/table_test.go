package table

import (
	"errors"
	"reflect"
	"testing"
)

const lowTierFixture = `000
FBUS31 KWNO 171354
FD1US1
DATA BASED ON 171200Z
VALID 171800Z   FOR USE 1400-2100Z. TEMPS NEG ABV 24000

FT  3000    6000    9000   12000   18000   24000  30000  34000  39000
ABI         2115+14 2316+09 2419+04 2530-10 2543-21 256036 256546 256456
ABQ                 2416+07 2522+01 2538-12 2552-23 257236 257646 258156
SFO 1020 0816+12 3112+06 3019+01 2930-12 2841-24 275738 276048 276159

`

const highTierFixture = `000
FBUS38 KWNO 171354
FD8US8
DATA BASED ON 171200Z
VALID 171800Z   FOR USE 1400-2100Z.

FT  45000  53000
ABQ 750163 760158
SFO 269857 269160
SEA 268959 279558
`

func intPtr(v int) *int { return &v }

func TestParse(t *testing.T) {
	t.Run("skips banner and reads header labels", func(t *testing.T) {
		got, err := Parse(lowTierFixture)
		if err != nil {
			t.Fatalf("Parse() err = %v; want nil", err)
		}
		want := []string{"FT", "3000", "6000", "9000", "12000", "18000", "24000", "30000", "34000", "39000"}
		if !reflect.DeepEqual(got.Labels, want) {
			t.Errorf("Labels = %v; want %v", got.Labels, want)
		}
		if len(got.Rows) != 3 {
			t.Fatalf("len(Rows) = %d; want 3", len(got.Rows))
		}
		for i, row := range got.Rows {
			if len(row) != len(got.Labels) {
				t.Errorf("row %d len = %d; want %d", i, len(row), len(got.Labels))
			}
		}
	})

	t.Run("fills blank low altitudes after the station id", func(t *testing.T) {
		got, err := Parse(lowTierFixture)
		if err != nil {
			t.Fatalf("Parse() err = %v; want nil", err)
		}
		abq := got.Rows[1]
		want := []string{"ABQ", "", "", "2416+07", "2522+01", "2538-12", "2552-23", "257236", "257646", "258156"}
		if !reflect.DeepEqual(abq, want) {
			t.Errorf("ABQ row = %q; want %q", abq, want)
		}
	})

	t.Run("three token row under four labels", func(t *testing.T) {
		got, err := Parse("FT  3000 6000 9000\nSFO 1020 0816\n")
		if err != nil {
			t.Fatalf("Parse() err = %v; want nil", err)
		}
		want := [][]string{{"SFO", "", "1020", "0816"}}
		if !reflect.DeepEqual(got.Rows, want) {
			t.Errorf("Rows = %q; want %q", got.Rows, want)
		}
	})

	t.Run("full width row is left alone", func(t *testing.T) {
		got, err := Parse("FT  3000 6000 9000\nSFO 1020 0816 0912\n")
		if err != nil {
			t.Fatalf("Parse() err = %v; want nil", err)
		}
		want := []string{"SFO", "1020", "0816", "0912"}
		if !reflect.DeepEqual(got.Rows[0], want) {
			t.Errorf("row = %q; want %q", got.Rows[0], want)
		}
	})

	t.Run("handles CRLF line endings", func(t *testing.T) {
		got, err := Parse("banner\r\nFT 3000 6000\r\nSFO 1020 0816\r\n")
		if err != nil {
			t.Fatalf("Parse() err = %v; want nil", err)
		}
		if len(got.Rows) != 1 || got.Rows[0][2] != "0816" {
			t.Errorf("Rows = %q; want one SFO row", got.Rows)
		}
	})

	t.Run("header only yields no rows", func(t *testing.T) {
		got, err := Parse("FT 45000 53000\n\n\n")
		if err != nil {
			t.Fatalf("Parse() err = %v; want nil", err)
		}
		if len(got.Rows) != 0 {
			t.Errorf("len(Rows) = %d; want 0", len(got.Rows))
		}
	})

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "whitespace", raw: " \n\t\n"},
		{name: "no header", raw: "000\nFBUS31 KWNO 171354\nABI 2115+14\n"},
		{name: "header not at line start", raw: " FT 3000 6000\nSFO 1020 0816\n"},
		{name: "row wider than header", raw: "FT 3000\nSFO 1020 0816\n"},
	}
	for _, tt := range tests {
		t.Run("malformed "+tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			if !errors.Is(err, ErrMalformedUpstreamData) {
				t.Errorf("Parse() err = %v; want ErrMalformedUpstreamData", err)
			}
		})
	}
}

func Test_repairBlankLowColumns(t *testing.T) {
	t.Run("no change at full width", func(t *testing.T) {
		row := []string{"SFO", "1020", "0816"}
		got := repairBlankLowColumns(row, 3)
		if !reflect.DeepEqual(got, []string{"SFO", "1020", "0816"}) {
			t.Errorf("got %q", got)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		once := repairBlankLowColumns([]string{"SFO", "0816"}, 4)
		twice := repairBlankLowColumns(append([]string(nil), once...), 4)
		if !reflect.DeepEqual(once, twice) {
			t.Errorf("once = %q twice = %q", once, twice)
		}
		if !reflect.DeepEqual(once, []string{"SFO", "", "", "0816"}) {
			t.Errorf("once = %q", once)
		}
	})
}

func TestMerge(t *testing.T) {
	t.Run("appends high columns to matching station", func(t *testing.T) {
		low := Table{Labels: []string{"FT", "3000", "6000"}, Rows: [][]string{{"SFO", "1020", "0816"}}}
		high := Table{Labels: []string{"FT", "39000", "45000"}, Rows: [][]string{{"SFO", "2740", "2755"}}}

		got := Merge(low, high)

		wantLabels := []string{"FT", "3000", "6000", "39000", "45000"}
		if !reflect.DeepEqual(got.Labels, wantLabels) {
			t.Errorf("Labels = %v; want %v", got.Labels, wantLabels)
		}
		wantRows := [][]string{{"SFO", "1020", "0816", "2740", "2755"}}
		if !reflect.DeepEqual(got.Rows, wantRows) {
			t.Errorf("Rows = %q; want %q", got.Rows, wantRows)
		}
	})

	t.Run("drops stations only present in high", func(t *testing.T) {
		low := Table{Labels: []string{"FT", "3000"}, Rows: [][]string{{"SFO", "1020"}}}
		high := Table{Labels: []string{"FT", "45000"}, Rows: [][]string{{"SEA", "2755"}, {"SFO", "2740"}}}

		got := Merge(low, high)

		if len(got.Rows) != 1 {
			t.Fatalf("len(Rows) = %d; want 1", len(got.Rows))
		}
		for _, s := range got.Stations() {
			if s == "SEA" {
				t.Errorf("SEA present in merged stations %v", got.Stations())
			}
		}
		if !reflect.DeepEqual(got.Rows[0], []string{"SFO", "1020", "2740"}) {
			t.Errorf("row = %q", got.Rows[0])
		}
	})

	t.Run("pads low stations missing from high", func(t *testing.T) {
		low := Table{
			Labels: []string{"FT", "3000", "6000"},
			Rows:   [][]string{{"ABI", "", "2115"}, {"SFO", "1020", "0816"}},
		}
		high := Table{Labels: []string{"FT", "45000", "53000"}, Rows: [][]string{{"SFO", "2740", "2755"}}}

		got := Merge(low, high)

		want := [][]string{
			{"ABI", "", "2115", "", ""},
			{"SFO", "1020", "0816", "2740", "2755"},
		}
		if !reflect.DeepEqual(got.Rows, want) {
			t.Errorf("Rows = %q; want %q", got.Rows, want)
		}
	})

	t.Run("keeps duplicate altitude labels across tiers", func(t *testing.T) {
		low := Table{Labels: []string{"FT", "34000", "39000"}, Rows: [][]string{{"SFO", "2760", "2761"}}}
		high := Table{Labels: []string{"FT", "39000", "45000"}, Rows: [][]string{{"SFO", "2740", "2755"}}}

		got := Merge(low, high)

		want := []string{"FT", "34000", "39000", "39000", "45000"}
		if !reflect.DeepEqual(got.Labels, want) {
			t.Errorf("Labels = %v; want %v", got.Labels, want)
		}
	})

	t.Run("every row matches label count", func(t *testing.T) {
		low, err := Parse(lowTierFixture)
		if err != nil {
			t.Fatalf("Parse(low): %v", err)
		}
		high, err := Parse(highTierFixture)
		if err != nil {
			t.Fatalf("Parse(high): %v", err)
		}

		got := Merge(low, high)

		if len(got.Rows) != len(low.Rows) {
			t.Fatalf("len(Rows) = %d; want %d", len(got.Rows), len(low.Rows))
		}
		for i, row := range got.Rows {
			if len(row) != len(got.Labels) {
				t.Errorf("row %d len = %d; want %d", i, len(row), len(got.Labels))
			}
			if row[0] != low.Rows[i][0] {
				t.Errorf("row %d station = %q; want %q", i, row[0], low.Rows[i][0])
			}
		}
		if !reflect.DeepEqual(got.Stations(), []string{"ABI", "ABQ", "SFO"}) {
			t.Errorf("Stations() = %v", got.Stations())
		}
	})

	t.Run("short high row does not shift columns", func(t *testing.T) {
		low := Table{Labels: []string{"FT", "3000"}, Rows: [][]string{{"SFO", "1020"}, {"SEA", "0910"}}}
		high := Table{
			Labels: []string{"FT", "45000", "53000"},
			Rows:   [][]string{{"SFO", "2740"}, {"SEA", "2755", "2760"}},
		}

		got := Merge(low, high)

		want := [][]string{{"SFO", "1020", "2740", ""}, {"SEA", "0910", "2755", "2760"}}
		if !reflect.DeepEqual(got.Rows, want) {
			t.Errorf("Rows = %q; want %q", got.Rows, want)
		}
	})

	t.Run("repeated station joins once", func(t *testing.T) {
		low := Table{Labels: []string{"FT", "3000"}, Rows: [][]string{{"SFO", "1020"}}}
		high := Table{Labels: []string{"FT", "45000"}, Rows: [][]string{{"SFO", "2740"}, {"SFO", "9999"}}}

		got := Merge(low, high)

		if !reflect.DeepEqual(got.Rows[0], []string{"SFO", "1020", "2740"}) {
			t.Errorf("row = %q", got.Rows[0])
		}
	})

	t.Run("does not mutate inputs", func(t *testing.T) {
		low := Table{Labels: []string{"FT", "3000"}, Rows: [][]string{{"SFO", "1020"}}}
		high := Table{Labels: []string{"FT", "45000"}, Rows: [][]string{{"SFO", "2740"}}}

		_ = Merge(low, high)

		if len(low.Labels) != 2 || len(low.Rows[0]) != 2 {
			t.Errorf("low mutated: %+v", low)
		}
	})

	t.Run("empty high tier pads only", func(t *testing.T) {
		low := Table{Labels: []string{"FT", "3000"}, Rows: [][]string{{"SFO", "1020"}}}

		got := Merge(low, Table{})

		if !reflect.DeepEqual(got.Labels, low.Labels) {
			t.Errorf("Labels = %v; want %v", got.Labels, low.Labels)
		}
		if !reflect.DeepEqual(got.Rows, low.Rows) {
			t.Errorf("Rows = %q; want %q", got.Rows, low.Rows)
		}
	})
}

func mergedFixture() Table {
	return Table{
		Labels: []string{"FT", "3000", "6000", "39000", "45000"},
		Rows:   [][]string{{"SFO", "1020", "0816", "2740", "2755"}, {"ABI", "", "2115", "", ""}},
	}
}

func TestFilter(t *testing.T) {
	t.Run("no bounds returns input unchanged", func(t *testing.T) {
		in := mergedFixture()
		got, err := Filter(in, AltitudeRange{})
		if err != nil {
			t.Fatalf("Filter() err = %v; want nil", err)
		}
		if !reflect.DeepEqual(got, in) {
			t.Errorf("Filter() = %+v; want %+v", got, in)
		}
	})

	t.Run("station column only is an error without bounds", func(t *testing.T) {
		in := Table{Labels: []string{"FT"}, Rows: [][]string{{"SFO"}}}
		if _, err := Filter(in, AltitudeRange{}); !errors.Is(err, ErrEmptyResult) {
			t.Errorf("Filter() err = %v; want ErrEmptyResult", err)
		}
		if _, err := Filter(Table{}, AltitudeRange{}); !errors.Is(err, ErrEmptyResult) {
			t.Errorf("Filter(empty) err = %v; want ErrEmptyResult", err)
		}
	})

	tests := []struct {
		name       string
		r          AltitudeRange
		wantLabels []string
		wantRows   [][]string
	}{
		{
			name:       "lower bound removes low column",
			r:          AltitudeRange{Lower: intPtr(5000)},
			wantLabels: []string{"FT", "6000", "39000", "45000"},
			wantRows:   [][]string{{"SFO", "0816", "2740", "2755"}, {"ABI", "2115", "", ""}},
		},
		{
			name:       "upper bound removes high columns",
			r:          AltitudeRange{Upper: intPtr(39000)},
			wantLabels: []string{"FT", "3000", "6000", "39000"},
			wantRows:   [][]string{{"SFO", "1020", "0816", "2740"}, {"ABI", "", "2115", ""}},
		},
		{
			name:       "bounds are inclusive",
			r:          AltitudeRange{Lower: intPtr(6000), Upper: intPtr(39000)},
			wantLabels: []string{"FT", "6000", "39000"},
			wantRows:   [][]string{{"SFO", "0816", "2740"}, {"ABI", "2115", ""}},
		},
		{
			name:       "non adjacent columns removed without shifting",
			r:          AltitudeRange{Lower: intPtr(6000), Upper: intPtr(6000)},
			wantLabels: []string{"FT", "6000"},
			wantRows:   [][]string{{"SFO", "0816"}, {"ABI", "2115"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(mergedFixture(), tt.r)
			if err != nil {
				t.Fatalf("Filter() err = %v; want nil", err)
			}
			if !reflect.DeepEqual(got.Labels, tt.wantLabels) {
				t.Errorf("Labels = %v; want %v", got.Labels, tt.wantLabels)
			}
			if !reflect.DeepEqual(got.Rows, tt.wantRows) {
				t.Errorf("Rows = %q; want %q", got.Rows, tt.wantRows)
			}
		})
	}

	t.Run("removing every altitude is an error", func(t *testing.T) {
		got, err := Filter(mergedFixture(), AltitudeRange{Lower: intPtr(60000)})
		if !errors.Is(err, ErrEmptyResult) {
			t.Fatalf("Filter() err = %v; want ErrEmptyResult", err)
		}
		if len(got.Labels) != 0 {
			t.Errorf("Filter() returned labels %v alongside error", got.Labels)
		}
	})

	t.Run("range between columns is an error", func(t *testing.T) {
		_, err := Filter(mergedFixture(), AltitudeRange{Lower: intPtr(7000), Upper: intPtr(8000)})
		if !errors.Is(err, ErrEmptyResult) {
			t.Fatalf("Filter() err = %v; want ErrEmptyResult", err)
		}
	})

	t.Run("keeps labels that are not altitudes", func(t *testing.T) {
		in := Table{Labels: []string{"FT", "3000", "X"}, Rows: [][]string{{"SFO", "1020", "?"}}}
		got, err := Filter(in, AltitudeRange{Lower: intPtr(5000)})
		if err != nil {
			t.Fatalf("Filter() err = %v; want nil", err)
		}
		if !reflect.DeepEqual(got.Labels, []string{"FT", "X"}) {
			t.Errorf("Labels = %v", got.Labels)
		}
	})

	t.Run("does not mutate input", func(t *testing.T) {
		in := mergedFixture()
		_, _ = Filter(in, AltitudeRange{Lower: intPtr(5000)})
		if !reflect.DeepEqual(in, mergedFixture()) {
			t.Errorf("input mutated: %+v", in)
		}
	})
}

func TestAltitudeRange(t *testing.T) {
	t.Run("Validate rejects inverted range", func(t *testing.T) {
		err := AltitudeRange{Lower: intPtr(30000), Upper: intPtr(18000)}.Validate()
		if !errors.Is(err, ErrInvalidRange) {
			t.Errorf("Validate() = %v; want ErrInvalidRange", err)
		}
	})

	t.Run("Validate accepts open and equal bounds", func(t *testing.T) {
		for _, r := range []AltitudeRange{{}, {Lower: intPtr(1)}, {Upper: intPtr(1)}, {Lower: intPtr(9000), Upper: intPtr(9000)}} {
			if err := r.Validate(); err != nil {
				t.Errorf("Validate(%+v) = %v; want nil", r, err)
			}
		}
	})

	t.Run("Contains", func(t *testing.T) {
		r := AltitudeRange{Lower: intPtr(18000), Upper: intPtr(30000)}
		for alt, want := range map[int]bool{12000: false, 18000: true, 24000: true, 30000: true, 34000: false} {
			if got := r.Contains(alt); got != want {
				t.Errorf("Contains(%d) = %v; want %v", alt, got, want)
			}
		}
	})
}

func TestTable_Altitudes(t *testing.T) {
	got := Table{Labels: []string{"FT", "3000", "bad", "45000"}}.Altitudes()
	if !reflect.DeepEqual(got, []int{3000, 45000}) {
		t.Errorf("Altitudes() = %v", got)
	}
	if got := (Table{}).Altitudes(); len(got) != 0 {
		t.Errorf("empty Altitudes() = %v", got)
	}
}
