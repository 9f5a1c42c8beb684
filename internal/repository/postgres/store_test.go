package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/gameplan-importer/internal/domain"
	"github.com/ignite/gameplan-importer/internal/masterdata"
	"github.com/ignite/gameplan-importer/internal/refstore"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestFindIDScopedByParent(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(`SELECT id, name FROM campaigns WHERE \(lower\(.+\) = \$1 OR name ~ .+\) AND range_id = \$2 ORDER BY name`).
		WithArgs("dove men fresh", "r-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow("c-1", "Dove Men Fresh"))

	id, err := s.FindID(context.Background(), domain.KindCampaign, "  DOVE men  fresh", "r-1")
	require.NoError(t, err)
	assert.Equal(t, "c-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindIDIgnoresParentForFlatKinds(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(`SELECT id, name FROM pm_types WHERE \(lower\(.+\) = \$1 OR name ~ .+\) ORDER BY name$`).
		WithArgs("always on").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	_, err := s.FindID(context.Background(), domain.KindPMType, "always on", "ignored")
	assert.ErrorIs(t, err, refstore.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindIDFoldsNonASCIINames(t *testing.T) {
	s, mock := newMock(t)
	// The non-ASCII branch returns candidates that only Go can match.
	mock.ExpectQuery(`SELECT id, name FROM ranges`).
		WithArgs("strasse").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow("r-9", "Ça Va").
			AddRow("r-1", "Straße"))

	id, err := s.FindID(context.Background(), domain.KindRange, "STRASSE", "")
	require.NoError(t, err)
	assert.Equal(t, "r-1", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindIDUnknownKind(t *testing.T) {
	s, mock := newMock(t)
	_, err := s.FindID(context.Background(), "brand", "x", "")
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRanges(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("SELECT r.id, r.name").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "categories"}).
			AddRow("r-1", "Dove Men", "{cat-1,cat-2}").
			AddRow("r-2", "Orphan", "{}"))

	ranges, err := s.ListRanges(context.Background())
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.Equal(t, []string{"cat-1", "cat-2"}, ranges[0].CategoryIDs)
	assert.Empty(t, ranges[1].CategoryIDs)
}

func TestCreateRangeLinksCategory(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec("INSERT INTO ranges").
		WithArgs(sqlmock.AnyArg(), "Dove Men+Care").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO range_categories").
		WithArgs(sqlmock.AnyArg(), "cat-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := s.CreateRange(context.Background(), "Dove Men+Care", "cat-1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListGamePlanMedia(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery("SELECT c.name, mt.name").
		WithArgs("de", "fc05", 10000).
		WillReturnRows(sqlmock.NewRows([]string{"campaign", "media"}).
			AddRow("Dove Men Fresh", "TV").
			AddRow("Dove Men Fresh", "Digital"))

	media, err := s.ListGamePlanMedia(context.Background(), "de", "fc05", 10000)
	require.NoError(t, err)
	assert.Equal(t, []domain.GamePlanMedia{
		{CampaignName: "Dove Men Fresh", MediaTypeName: "TV"},
		{CampaignName: "Dove Men Fresh", MediaTypeName: "Digital"},
	}, media)
}

func TestFindGamePlan(t *testing.T) {
	s, mock := newMock(t)
	key := domain.GamePlanKey{CampaignID: "c-1", MediaSubtypeID: "st-1", StartDate: "2025-01-06", EndDate: "2025-03-30"}
	now := time.Now()

	mock.ExpectQuery("FROM game_plans").
		WithArgs("c-1", "st-1", "2025-01-06", "2025-03-30").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "campaign_id", "media_subtype_id", "country_id", "financial_cycle_id", "pm_type_id",
			"start_date", "end_date", "total_budget", "q1", "q2", "q3", "q4",
			"trps", "reach_1_plus", "target_reach", "current_reach", "created_at", "updated_at",
		}).AddRow("gp-1", "c-1", "st-1", "de", "fc05", nil,
			"2025-01-06", "2025-03-30", 1000.0, 250.0, 250.0, 250.0, 250.0,
			850.0, 0.62, nil, nil, now, now))

	gp, err := s.FindGamePlan(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, key, gp.Key())
	assert.Empty(t, gp.PMTypeID)
	require.NotNil(t, gp.TRPs)
	assert.Equal(t, 850.0, *gp.TRPs)
	assert.Nil(t, gp.TargetReach)

	mock.ExpectQuery("FROM game_plans").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err = s.FindGamePlan(context.Background(), key)
	assert.ErrorIs(t, err, refstore.ErrNotFound)
}

func TestCreateAndUpdateGamePlan(t *testing.T) {
	s, mock := newMock(t)
	reach := 0.5
	gp := &domain.GamePlan{
		CampaignID: "c-1", MediaSubtypeID: "st-1", CountryID: "de", FinancialCycleID: "fc05",
		StartDate: "2025-01-06", EndDate: "2025-03-30", TotalBudget: 100, Q1Budget: 100, Reach1Plus: &reach,
	}

	mock.ExpectExec("INSERT INTO game_plans").
		WithArgs(sqlmock.AnyArg(), "c-1", "st-1", "de", "fc05", "", "2025-01-06", "2025-03-30",
			100.0, 100.0, 0.0, 0.0, 0.0, nil, 0.5, nil, nil).
		WillReturnResult(sqlmock.NewResult(1, 1))
	id, err := s.CreateGamePlan(context.Background(), gp)
	require.NoError(t, err)

	gp.ID = id
	gp.Q2Budget = 50
	mock.ExpectExec("UPDATE game_plans SET").
		WithArgs(id, "", 100.0, 100.0, 50.0, 0.0, 0.0, nil, 0.5, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.UpdateGamePlan(context.Background(), gp))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSufficiencyRoundTrip(t *testing.T) {
	s, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery("FROM sufficiency_records").
		WithArgs("c-1", "de", "fc05").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "campaign_id", "country_id", "category_id", "range_id", "financial_cycle_id", "fields", "created_at", "updated_at",
		}).AddRow("s-1", "c-1", "de", "cat-1", "r-1", "fc05", []byte(`{"tvReach":"45%"}`), now, now))

	rec, err := s.FindSufficiency(context.Background(), "c-1", "de", "fc05")
	require.NoError(t, err)
	assert.Equal(t, "45%", rec.Fields["tvReach"])

	rec.Fields["digitalReach"] = "30%"
	mock.ExpectExec("UPDATE sufficiency_records SET").
		WithArgs("s-1", "cat-1", "r-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.UpdateSufficiency(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenerServesSnapshotLoadOnOneConnection(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.MatchExpectationsInOrder(false)

	two := []string{"id", "name"}
	three := []string{"id", "name", "parent"}
	mock.ExpectQuery("FROM countries").WillReturnRows(sqlmock.NewRows(three).AddRow("de", "Germany", "dach"))
	mock.ExpectQuery("FROM sub_regions").WillReturnRows(sqlmock.NewRows(two).AddRow("dach", "DACH"))
	mock.ExpectQuery("FROM business_units").WillReturnRows(sqlmock.NewRows(two).AddRow("pc", "Personal Care"))
	mock.ExpectQuery("FROM categories").WillReturnRows(sqlmock.NewRows(three).AddRow("deo", "Deo", "pc"))
	mock.ExpectQuery("FROM ranges").WillReturnRows(sqlmock.NewRows(three).AddRow("bw", "Black & White", "{deo}"))
	mock.ExpectQuery("FROM campaigns").WillReturnRows(sqlmock.NewRows(three).AddRow("c-bw", "Black & White", "bw"))
	mock.ExpectQuery("FROM media_types").WillReturnRows(sqlmock.NewRows(two).AddRow("tv", "TV"))
	mock.ExpectQuery("FROM media_subtypes").WillReturnRows(sqlmock.NewRows(three).AddRow("ltv", "Linear TV", "tv"))

	store, release, err := NewOpener(db).Open(context.Background())
	require.NoError(t, err)
	defer release()

	snap, err := masterdata.Load(context.Background(), store)
	require.NoError(t, err)
	assert.True(t, snap.RangeInCategory("deo", "black & white"))
	assert.True(t, snap.SubtypeInType("TV", "Linear TV"))
	name, ok := snap.CountrySubRegion("germany")
	assert.True(t, ok)
	assert.Equal(t, "DACH", name)
	assert.NoError(t, mock.ExpectationsWereMet())
}
