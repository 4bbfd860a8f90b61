package query

import (
	"slices"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type gormItem struct {
	ID       uint `gorm:"primaryKey"`
	Name     string
	Status   string
	Priority int
	Note     *string
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Every pooled connection to :memory: is a separate database.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.AutoMigrate(&gormItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	note := "flagged"
	items := []gormItem{
		{Name: "Alpha", Status: "active", Priority: 1},
		{Name: "beta", Status: "disabled", Priority: 5, Note: &note},
		{Name: "Gamma", Status: "active", Priority: 10},
		{Name: "delta", Status: "archived", Priority: 3},
	}
	if err := db.Create(&items).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	return db
}

func names(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var rows []gormItem
	if err := db.Find(&rows).Error; err != nil {
		t.Fatalf("find: %v", err)
	}
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestApplyToGorm(t *testing.T) {
	db := setupDB(t)
	tests := []struct {
		filter string
		want   []string
	}{
		{"", []string{"Alpha", "beta", "Gamma", "delta"}},
		{"status=eq.active", []string{"Alpha", "Gamma"}},
		{"status=neq.active", []string{"beta", "delta"}},
		{"priority=gt.3", []string{"beta", "Gamma"}},
		{"priority=lte.3", []string{"Alpha", "delta"}},
		{"status=in.(disabled,archived)", []string{"beta", "delta"}},
		{"status=nin.(disabled,archived)", []string{"Alpha", "Gamma"}},
		{"name=like.amm", []string{"Gamma"}},
		{"name=ilike.ALPHA", []string{"Alpha"}},
		{"note=is.null", []string{"Alpha", "Gamma", "delta"}},
		{"note=not.is.null", []string{"beta"}},
		{"status=eq.active&priority=gte.5", []string{"Gamma"}},
	}
	for _, tc := range tests {
		t.Run(tc.filter, func(t *testing.T) {
			got := names(t, ApplyToGorm(db.Model(&gormItem{}).Order("id"), ParseFilter(tc.filter)))
			if !slices.Equal(got, tc.want) {
				t.Errorf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestApplyQueryWindowAndOrder(t *testing.T) {
	db := setupDB(t)

	q := Query{Order: []string{"-priority"}, Skip: 1, Limit: 2}
	if got := names(t, ApplyQuery(db.Model(&gormItem{}), q)); !slices.Equal(got, []string{"beta", "delta"}) {
		t.Errorf("got %v", got)
	}

	q = Query{Where: ParseFilter("status=eq.active"), Order: []string{"name desc"}}
	if got := names(t, ApplyQuery(db.Model(&gormItem{}), q)); !slices.Equal(got, []string{"Gamma", "Alpha"}) {
		t.Errorf("got %v", got)
	}
}

func TestApplyToGormSkipsUnsafeFields(t *testing.T) {
	db := setupDB(t)
	f := Filter{{Field: "status = 'x' OR 1", Operator: OpEq, Value: "1"}}
	if got := names(t, ApplyToGorm(db.Model(&gormItem{}), f)); len(got) != 4 {
		t.Errorf("expected the unsafe condition to be ignored, got %v", got)
	}
}
