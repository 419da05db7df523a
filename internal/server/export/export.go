// Package export writes stored games to Parquet for offline analysis
package export

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/reader"
	"github.com/xitongsys/parquet-go/writer"

	"luchess/internal/server/storage"
)

const readBatchSize = 1024

type MoveRow struct {
	MoveNumber int32  `parquet:"name=move_number, type=INT32"`
	From       string `parquet:"name=from_square, type=BYTE_ARRAY, convertedtype=UTF8"`
	To         string `parquet:"name=to_square, type=BYTE_ARRAY, convertedtype=UTF8"`
	Piece      string `parquet:"name=piece, type=BYTE_ARRAY, convertedtype=UTF8"`
	Capture    bool   `parquet:"name=capture, type=BOOLEAN"`
	Special    string `parquet:"name=special, type=BYTE_ARRAY, convertedtype=UTF8"`
	PromotedTo string `parquet:"name=promoted_to, type=BYTE_ARRAY, convertedtype=UTF8"`
	FEN        string `parquet:"name=fen_after_move, type=BYTE_ARRAY, convertedtype=UTF8"`
	Color      string `parquet:"name=player_color, type=BYTE_ARRAY, convertedtype=UTF8"`
	TimeMillis int64  `parquet:"name=move_time_ms, type=INT64"`
}

// GameRow is one game with its moves nested. Times are unix milliseconds,
// EndMillis is 0 for unfinished games.
type GameRow struct {
	GameID       string    `parquet:"name=game_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	White        string    `parquet:"name=white_player_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Black        string    `parquet:"name=black_player_id, type=BYTE_ARRAY, convertedtype=UTF8"`
	StartMillis  int64     `parquet:"name=start_time_ms, type=INT64"`
	EndMillis    int64     `parquet:"name=end_time_ms, type=INT64"`
	Result       string    `parquet:"name=result, type=BYTE_ARRAY, convertedtype=UTF8"`
	ResultDetail string    `parquet:"name=result_detail, type=BYTE_ARRAY, convertedtype=UTF8"`
	MoveCount    int32     `parquet:"name=move_count, type=INT32"`
	Moves        []MoveRow `parquet:"name=moves, type=LIST"`
}

// Rows joins game records with their moves, keyed by game ID
func Rows(games []storage.GameRecord, moves map[string][]storage.MoveRecord) []GameRow {
	rows := make([]GameRow, 0, len(games))
	for _, g := range games {
		row := GameRow{
			GameID:       g.GameID,
			White:        g.WhitePlayerID,
			Black:        g.BlackPlayerID,
			StartMillis:  g.StartTimeUTC.UnixMilli(),
			Result:       g.Result,
			ResultDetail: g.ResultDetail,
		}
		if g.EndTimeUTC != nil {
			row.EndMillis = g.EndTimeUTC.UnixMilli()
		}
		for _, m := range moves[g.GameID] {
			row.Moves = append(row.Moves, MoveRow{
				MoveNumber: int32(m.MoveNumber),
				From:       m.FromSquare,
				To:         m.ToSquare,
				Piece:      m.Piece,
				Capture:    m.Capture,
				Special:    m.Special,
				PromotedTo: m.PromotedTo,
				FEN:        m.FENAfterMove,
				Color:      m.PlayerColor,
				TimeMillis: m.MoveTimeUTC.UnixMilli(),
			})
		}
		row.MoveCount = int32(len(row.Moves))
		rows = append(rows, row)
	}
	return rows
}

// WriteParquet writes one SNAPPY-compressed row per game
func WriteParquet(path string, games []storage.GameRecord, moves map[string][]storage.MoveRecord, parallel int64) error {
	fileWriter, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	parquetWriter, err := writer.NewParquetWriter(fileWriter, new(GameRow), parallel)
	if err != nil {
		fileWriter.Close()
		return fmt.Errorf("failed to create parquet writer: %w", err)
	}
	parquetWriter.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, row := range Rows(games, moves) {
		if err := parquetWriter.Write(row); err != nil {
			fileWriter.Close()
			return fmt.Errorf("failed to write game %s: %w", row.GameID, err)
		}
	}
	if err := parquetWriter.WriteStop(); err != nil {
		fileWriter.Close()
		return fmt.Errorf("failed to finish parquet file: %w", err)
	}
	return fileWriter.Close()
}

// ReadParquet loads every row of a file written by WriteParquet
func ReadParquet(path string, parallel int64) ([]GameRow, error) {
	fileReader, err := local.NewLocalFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer fileReader.Close()

	parquetReader, err := reader.NewParquetReader(fileReader, new(GameRow), parallel)
	if err != nil {
		return nil, fmt.Errorf("failed to create parquet reader: %w", err)
	}
	defer parquetReader.ReadStop()

	total := int(parquetReader.GetNumRows())
	rows := make([]GameRow, 0, total)
	for offset := 0; offset < total; offset += readBatchSize {
		n := min(readBatchSize, total-offset)
		batch := make([]GameRow, n)
		if err := parquetReader.Read(&batch); err != nil {
			return nil, fmt.Errorf("failed to read rows at %d: %w", offset, err)
		}
		rows = append(rows, batch...)
	}
	return rows, nil
}

// FromStore exports the games matching the filters, as QueryGames does, and
// returns how many were written
func FromStore(store *storage.Store, path, gameID, playerID string, parallel int64) (int, error) {
	games, err := store.QueryGames(gameID, playerID)
	if err != nil {
		return 0, err
	}

	moves := make(map[string][]storage.MoveRecord, len(games))
	for _, g := range games {
		m, err := store.QueryMoves(g.GameID)
		if err != nil {
			return 0, fmt.Errorf("failed to load moves of %s: %w", g.GameID, err)
		}
		moves[g.GameID] = m
	}

	if err := WriteParquet(path, games, moves, parallel); err != nil {
		return 0, err
	}
	return len(games), nil
}
