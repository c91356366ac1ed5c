package db

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"damwatch/internal/types"
)

// --- Mock DBTX ---

type mockDBTX struct {
	mock.Mock
}

func (m *mockDBTX) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgconn.CommandTag), args.Error(1)
}

func (m *mockDBTX) Query(ctx context.Context, sql string, arguments ...any) (pgx.Rows, error) {
	args := m.Called(ctx, sql, arguments)
	if r := args.Get(0); r != nil {
		return r.(pgx.Rows), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockDBTX) QueryRow(ctx context.Context, sql string, arguments ...any) pgx.Row {
	args := m.Called(ctx, sql, arguments)
	return args.Get(0).(pgx.Row)
}

// --- Mock Row ---

type mockRow struct {
	scanErr error
	scanFn  func(dest ...any) error
}

func (r *mockRow) Scan(dest ...any) error {
	if r.scanFn != nil {
		return r.scanFn(dest...)
	}
	return r.scanErr
}

// --- Mock Rows ---

type mockRows struct {
	data    [][]any
	idx     int
	closed  bool
	scanErr error
	errVal  error
}

func newMockRows(data [][]any) *mockRows {
	return &mockRows{data: data, idx: -1}
}

func (r *mockRows) Next() bool {
	if r.closed {
		return false
	}
	r.idx++
	return r.idx < len(r.data)
}

func (r *mockRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	row := r.data[r.idx]
	for i, d := range dest {
		switch v := d.(type) {
		case *string:
			*v = row[i].(string)
		case *[]byte:
			*v = row[i].([]byte)
		}
	}
	return nil
}

func (r *mockRows) Close()                                       { r.closed = true }
func (r *mockRows) Err() error                                   { return r.errVal }
func (r *mockRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *mockRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *mockRows) RawValues() [][]byte                          { return nil }
func (r *mockRows) Values() ([]any, error)                       { return nil, nil }
func (r *mockRows) Conn() *pgx.Conn                              { return nil }

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// --- ReadingRepository Tests ---

func TestReadingRepository_Recent_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewReadingRepository(db, testLogger())

	rows := newMockRows([][]any{
		{"2026-03-04T08:45:00Z", []byte(`{"humidity": 82.5, "waterLevel": 3.1, "timestamp": 1772613900000}`)},
		{"2026-03-04T08:30:00Z", []byte(`{"humidity": 80, "timestamp": "2026-03-04T08:30:00Z"}`)},
	})
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	readings, err := repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, readings, 2)

	require.NotNil(t, readings[0].Humidity)
	assert.Equal(t, 82.5, *readings[0].Humidity)
	assert.Equal(t, 3.1, readings[0].Fields["waterLevel"])
	require.NotNil(t, readings[1].Humidity)
	assert.Equal(t, 80.0, *readings[1].Humidity)
}

func TestReadingRepository_Recent_SkipsMalformedRows(t *testing.T) {
	db := new(mockDBTX)
	repo := NewReadingRepository(db, testLogger())

	rows := newMockRows([][]any{
		{"k3", []byte(`{"humidity": 70}`)},
		{"k2", []byte(`not json at all`)},
		{"k1", []byte(`"just a string"`)},
	})
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	readings, err := repo.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 70.0, *readings[0].Humidity)
}

func TestReadingRepository_Recent_QueryError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewReadingRepository(db, testLogger())

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := repo.Recent(context.Background(), 10)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalStore, appErr.Code)
}

func TestReadingRepository_Latest_Empty(t *testing.T) {
	db := new(mockDBTX)
	repo := NewReadingRepository(db, testLogger())

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(newMockRows(nil), nil)

	reading, err := repo.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, reading)
}

func TestReadingRepository_Latest_ReturnsNewest(t *testing.T) {
	db := new(mockDBTX)
	repo := NewReadingRepository(db, testLogger())

	rows := newMockRows([][]any{
		{"2026-03-04T08:45:00Z", []byte(`{"humidity": 91}`)},
	})
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	reading, err := repo.Latest(context.Background())
	require.NoError(t, err)
	require.NotNil(t, reading)
	assert.Equal(t, 91.0, *reading.Humidity)
}

// --- ValveRepository Tests ---

func TestValveRepository_Status_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewValveRepository(db)

	row := &mockRow{
		scanFn: func(dest ...any) error {
			*dest[0].(*[]byte) = []byte(`{"state":"OPEN","reason":"HIGH_WATER","timestamp":1772613900000}`)
			return nil
		},
	}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row)

	status, err := repo.Status(context.Background())
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, types.ValveOpen, status.State)
	assert.Equal(t, "HIGH_WATER", status.Reason)
	assert.Equal(t, float64(1772613900000), status.Timestamp)
}

func TestValveRepository_Status_NotWritten(t *testing.T) {
	db := new(mockDBTX)
	repo := NewValveRepository(db)

	row := &mockRow{scanErr: pgx.ErrNoRows}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row)

	status, err := repo.Status(context.Background())
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestValveRepository_Control_NotWritten(t *testing.T) {
	db := new(mockDBTX)
	repo := NewValveRepository(db)

	row := &mockRow{scanErr: pgx.ErrNoRows}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row)

	control, err := repo.Control(context.Background())
	require.NoError(t, err)
	assert.Nil(t, control)
}

func TestValveRepository_Control_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewValveRepository(db)

	row := &mockRow{
		scanFn: func(dest ...any) error {
			*dest[0].(*[]byte) = []byte(`{"mode":"MANUAL","manualCommand":"OPEN","updatedAt":"2026-03-04T08:45:00Z"}`)
			return nil
		},
	}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row)

	control, err := repo.Control(context.Background())
	require.NoError(t, err)
	require.NotNil(t, control)
	assert.Equal(t, types.ModeManual, control.Mode)
	assert.Equal(t, types.CommandOpen, control.ManualCommand)
}

func TestValveRepository_Status_ScanError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewValveRepository(db)

	row := &mockRow{scanErr: errors.New("broken pipe")}
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(row)

	_, err := repo.Status(context.Background())
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalStore, appErr.Code)
}

func TestValveRepository_UpdateControl_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewValveRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	err := repo.UpdateControl(context.Background(), types.ValveControl{
		Mode:          types.ModeAuto,
		ManualCommand: types.CommandNone,
		UpdatedAt:     "2026-03-04T08:45:00Z",
	})
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestValveRepository_UpdateControl_DBError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewValveRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.CommandTag{}, errors.New("connection refused"))

	err := repo.UpdateControl(context.Background(), types.ValveControl{Mode: types.ModeAuto})
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalStore, appErr.Code)
}

// --- PredictionRepository Tests ---

func TestPredictionRepository_SetLatest_Success(t *testing.T) {
	db := new(mockDBTX)
	repo := NewPredictionRepository(db)

	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	err := repo.SetLatest(context.Background(), map[string]any{
		"percent":   61.4,
		"rainLabel": types.LabelYes,
		"timestamp": "2026-03-04T08:45:00Z",
	})
	require.NoError(t, err)
	db.AssertExpectations(t)
}

func TestPredictionRepository_AppendAlert_KeyIsTimeOrdered(t *testing.T) {
	db := new(mockDBTX)
	repo := NewPredictionRepository(db)

	var capturedKey string
	db.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Run(func(args mock.Arguments) {
			sqlArgs := args.Get(2).([]any)
			capturedKey = sqlArgs[1].(string)
		}).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)

	err := repo.AppendAlert(context.Background(), StreamRainfall, map[string]any{"percent": 10.0})
	require.NoError(t, err)

	// RFC3339Nano timestamp plus a uuid suffix.
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?Z-[0-9a-f-]{36}$`, capturedKey)
}

func TestPredictionRepository_AlertLog_MostRecentFirst(t *testing.T) {
	db := new(mockDBTX)
	repo := NewPredictionRepository(db)

	rows := newMockRows([][]any{
		{[]byte(`{"percent": 72.1, "rainLabel": "YES"}`)},
		{[]byte(`{"percent": 12.0, "rainLabel": "NO"}`)},
	})
	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(rows, nil)

	records, err := repo.AlertLog(context.Background(), StreamRainfall, 200)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 72.1, records[0]["percent"])
	assert.Equal(t, "NO", records[1]["rainLabel"])
}

func TestPredictionRepository_AlertLog_EmptyStream(t *testing.T) {
	db := new(mockDBTX)
	repo := NewPredictionRepository(db)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(newMockRows(nil), nil)

	records, err := repo.AlertLog(context.Background(), StreamWaterLevel, 200)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPredictionRepository_AlertLog_QueryError(t *testing.T) {
	db := new(mockDBTX)
	repo := NewPredictionRepository(db)

	db.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := repo.AlertLog(context.Background(), StreamVibration, 200)
	require.Error(t, err)

	var appErr *types.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, types.ErrCodeInternalStore, appErr.Code)
}
