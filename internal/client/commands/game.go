package commands

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"luchess/internal/client/api"
	"luchess/internal/client/display"
)

const noGame = "no current game, use 'new' or 'join <gameId>'"

func (r *Registry) registerGameCommands() {
	r.Register(&Command{
		Name:        "new",
		ShortName:   "n",
		Group:       GroupGame,
		Description: "Create a new game",
		Usage:       "new [square=piece ...] [turn=w|b]   e.g. new e1=wk e8=bk a7=wp",
		Handler:     newGameHandler,
	})

	r.Register(&Command{
		Name:        "join",
		ShortName:   "j",
		Group:       GroupGame,
		Description: "Take a free side when signed in, otherwise watch",
		Usage:       "join <gameId>",
		Handler:     joinGameHandler,
	})

	r.Register(&Command{
		Name:        "move",
		ShortName:   "m",
		Group:       GroupPlay,
		Description: "Make a move",
		Usage:       "move <from><to>[q|r|b|n] | move <from> <to>",
		Handler:     moveHandler,
	})

	r.Register(&Command{
		Name:        "promote",
		ShortName:   "q",
		Group:       GroupPlay,
		Description: "Choose the piece for a pending promotion",
		Usage:       "promote <q|r|b|n>",
		Handler:     promoteHandler,
	})

	r.Register(&Command{
		Name:        "undo",
		ShortName:   "u",
		Group:       GroupHistory,
		Description: "Undo moves",
		Usage:       "undo [count]",
		Handler:     undoHandler,
	})

	r.Register(&Command{
		Name:        "redo",
		ShortName:   "y",
		Group:       GroupHistory,
		Description: "Redo undone moves",
		Usage:       "redo [count]",
		Handler:     redoHandler,
	})

	r.Register(&Command{
		Name:        "moves",
		ShortName:   "g",
		Group:       GroupPlay,
		Description: "List legal moves",
		Usage:       "moves [square]",
		Handler:     legalMovesHandler,
	})

	r.Register(&Command{
		Name:        "show",
		ShortName:   "h",
		Group:       GroupPlay,
		Description: "Show board and game state",
		Usage:       "show",
		Handler:     showBoardHandler,
	})

	r.Register(&Command{
		Name:        "state",
		ShortName:   "s",
		Group:       GroupPlay,
		Description: "Show raw game JSON",
		Usage:       "state",
		Handler:     gameStateHandler,
	})

	r.Register(&Command{
		Name:        "delete",
		ShortName:   "d",
		Group:       GroupGame,
		Description: "Delete a game",
		Usage:       "delete [gameId]",
		Handler:     deleteGameHandler,
	})

	r.Register(&Command{
		Name:        "poll",
		ShortName:   "p",
		Group:       GroupGame,
		Description: "Long-poll for game updates",
		Usage:       "poll",
		Handler:     pollHandler,
	})
}

// parsePositionArgs reads square=piece pairs and an optional turn=w|b
func parsePositionArgs(args []string) (*api.CreateGameRequest, error) {
	req := &api.CreateGameRequest{}
	for _, arg := range args {
		key, value, ok := strings.Cut(strings.ToLower(arg), "=")
		if !ok || value == "" {
			return nil, fmt.Errorf("expected square=piece or turn=w|b, got %q", arg)
		}
		if key == "turn" {
			if value != "w" && value != "b" {
				return nil, fmt.Errorf("turn must be w or b")
			}
			req.Turn = value
			continue
		}
		if req.Position == nil {
			req.Position = make(map[string]string)
		}
		req.Position[key] = value
	}
	return req, nil
}

// parseMoveArgs accepts "e2e4", "e2 e4" and "e7e8q"
func parseMoveArgs(args []string) (from, to, promotion string, err error) {
	joined := strings.ToLower(strings.Join(args, ""))
	switch len(joined) {
	case 4:
		return joined[:2], joined[2:4], "", nil
	case 5:
		p := joined[4:]
		if !strings.Contains("qrbn", p) {
			return "", "", "", fmt.Errorf("invalid promotion piece: %s", p)
		}
		return joined[:2], joined[2:4], p, nil
	}
	return "", "", "", fmt.Errorf("usage: move <from><to>[q|r|b|n]")
}

func parseCount(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	count, err := strconv.Atoi(args[0])
	if err != nil || count < 1 {
		return 0, fmt.Errorf("invalid count: %s", args[0])
	}
	return count, nil
}

// track stores a fresh game response in the session
func track(s Session, resp *api.GameResponse) {
	s.SetLastMoveCount(resp.MoveCount())
	s.SetGameState(resp)

	if s.GetCurrentUser() == "" {
		return
	}
	switch s.GetCurrentUser() {
	case resp.Players.White:
		s.SetPlayerColor("w")
	case resp.Players.Black:
		s.SetPlayerColor("b")
	default:
		s.SetPlayerColor("")
	}
}

func printStatus(resp *api.GameResponse) {
	fmt.Printf("Turn: %s | State: %s | Moves: %d/%d\n",
		display.ColorForTurn(resp.Turn), display.ColorForState(resp.State),
		resp.CurrentMoveIndex+1, len(resp.Moves))
	if resp.Check && resp.State == "active" {
		fmt.Printf("%s%s is in check%s\n", display.Yellow, display.ColorForTurn(resp.Turn), display.Reset)
	}
	if resp.Pending != nil {
		fmt.Printf("%sPromotion pending on %s%s, use 'promote <q|r|b|n>'%s\n",
			display.Magenta, resp.Pending.From, resp.Pending.To, display.Reset)
	}
	if resp.Result != nil {
		msg := resp.Result.Message
		if msg == "" && resp.Result.Winner != "" {
			msg = resp.Result.Winner + " wins"
		}
		fmt.Printf("%sGame over: %s%s\n", display.Magenta, msg, display.Reset)
	}
}

func newGameHandler(s Session, args []string) error {
	req, err := parsePositionArgs(args)
	if err != nil {
		return err
	}

	c := s.GetClient().(*api.Client)
	resp, err := c.CreateGame(req)
	if err != nil {
		return err
	}

	s.SetCurrentGame(resp.GameID)
	track(s, resp)

	fmt.Printf("%sGame created: %s%s\n", display.Green, resp.GameID, display.Reset)
	fmt.Printf("%sCurrent game set to: %s%s\n", display.Cyan, resp.GameID, display.Reset)
	return nil
}

func joinGameHandler(s Session, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: join <gameId>")
	}

	gameID := args[0]
	c := s.GetClient().(*api.Client)

	var resp *api.GameResponse
	var err error
	watching := s.GetAuthToken() == ""
	if !watching {
		resp, err = c.JoinGame(gameID)
		var se *api.StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusConflict {
			watching = true
		} else if err != nil {
			return err
		}
	}
	if watching {
		if resp, err = c.GetGame(gameID); err != nil {
			return err
		}
	}

	s.SetCurrentGame(gameID)
	track(s, resp)

	switch s.GetPlayerColor() {
	case "w", "b":
		fmt.Printf("%sJoined game %s as %s%s\n", display.Green, gameID, display.ColorForTurn(s.GetPlayerColor()), display.Reset)
	default:
		fmt.Printf("%sWatching game: %s%s\n", display.Green, gameID, display.Reset)
	}
	printStatus(resp)
	return nil
}

func moveHandler(s Session, args []string) error {
	gameID := s.GetCurrentGame()
	if gameID == "" {
		return fmt.Errorf(noGame)
	}

	from, to, promotion, err := parseMoveArgs(args)
	if err != nil {
		return err
	}

	c := s.GetClient().(*api.Client)
	resp, err := c.MakeMove(gameID, from, to)
	if err != nil {
		return err
	}

	if resp.Pending != nil && promotion != "" {
		resp, err = c.Promote(gameID, from, to, promotion)
		if err != nil {
			return err
		}
	}

	track(s, resp)
	fmt.Printf("%sMove accepted%s\n", display.Green, display.Reset)
	printStatus(resp)
	return nil
}

func promoteHandler(s Session, args []string) error {
	gameID := s.GetCurrentGame()
	if gameID == "" {
		return fmt.Errorf(noGame)
	}
	if len(args) < 1 {
		return fmt.Errorf("usage: promote <q|r|b|n>")
	}

	state := s.GetGameState()
	if state == nil || state.Pending == nil {
		return fmt.Errorf("no promotion pending")
	}

	piece := strings.ToLower(args[0])
	c := s.GetClient().(*api.Client)
	resp, err := c.Promote(gameID, state.Pending.From, state.Pending.To, piece)
	if err != nil {
		return err
	}

	track(s, resp)
	fmt.Printf("%sPromoted on %s to %s%s\n", display.Green, state.Pending.To, piece, display.Reset)
	printStatus(resp)
	return nil
}

func undoHandler(s Session, args []string) error {
	gameID := s.GetCurrentGame()
	if gameID == "" {
		return fmt.Errorf(noGame)
	}

	count, err := parseCount(args)
	if err != nil {
		return err
	}

	c := s.GetClient().(*api.Client)
	resp, err := c.UndoMoves(gameID, count)
	if err != nil {
		return err
	}

	track(s, resp)
	fmt.Printf("%sAt move %d of %d%s\n", display.Green, resp.CurrentMoveIndex+1, len(resp.Moves), display.Reset)
	return nil
}

func redoHandler(s Session, args []string) error {
	gameID := s.GetCurrentGame()
	if gameID == "" {
		return fmt.Errorf(noGame)
	}

	count, err := parseCount(args)
	if err != nil {
		return err
	}

	c := s.GetClient().(*api.Client)
	resp, err := c.RedoMoves(gameID, count)
	if err != nil {
		return err
	}

	track(s, resp)
	fmt.Printf("%sAt move %d of %d%s\n", display.Green, resp.CurrentMoveIndex+1, len(resp.Moves), display.Reset)
	return nil
}

func legalMovesHandler(s Session, args []string) error {
	gameID := s.GetCurrentGame()
	if gameID == "" {
		return fmt.Errorf(noGame)
	}

	from := ""
	if len(args) > 0 {
		from = strings.ToLower(args[0])
	}

	c := s.GetClient().(*api.Client)
	resp, err := c.LegalMoves(gameID, from)
	if err != nil {
		return err
	}

	if len(resp.Moves) == 0 {
		fmt.Printf("%sNo legal moves%s\n", display.Yellow, display.Reset)
		return nil
	}
	fmt.Printf("%s%d legal move(s):%s %s\n", display.Cyan, len(resp.Moves), display.Reset, strings.Join(resp.Moves, " "))
	return nil
}

func showBoardHandler(s Session, args []string) error {
	gameID := s.GetCurrentGame()
	if gameID == "" {
		return fmt.Errorf(noGame)
	}

	c := s.GetClient().(*api.Client)

	game, err := c.GetGame(gameID)
	if err != nil {
		return err
	}

	board, err := c.GetBoard(gameID)
	if err != nil {
		return err
	}

	track(s, game)

	fmt.Println()
	display.RenderBoard(c.Out, board.Board)

	fmt.Printf("\nFEN: %s\n", game.FEN)
	printStatus(game)

	if len(game.Moves) > 0 {
		notations := make([]string, len(game.Moves))
		for i, m := range game.Moves {
			notations[i] = m.Notation
		}
		fmt.Printf("\nHistory: %s\n", display.FormatHistory(notations, game.CurrentMoveIndex))
	}

	if game.LastMove != nil {
		m := game.LastMove
		fmt.Printf("Last move: %s (%s)", m.Notation, m.Piece)
		if m.Capture {
			fmt.Print(" capture")
		}
		if m.Special != "" {
			fmt.Printf(" %s", m.Special)
		}
		fmt.Println()
	}

	return nil
}

func gameStateHandler(s Session, args []string) error {
	gameID := s.GetCurrentGame()
	if gameID == "" {
		return fmt.Errorf(noGame)
	}

	c := s.GetClient().(*api.Client)
	resp, err := c.GetGame(gameID)
	if err != nil {
		return err
	}

	track(s, resp)

	fmt.Printf("%sGame State:%s\n", display.Cyan, display.Reset)
	display.PrettyPrintJSON(c.Out, resp)
	return nil
}

func deleteGameHandler(s Session, args []string) error {
	gameID := s.GetCurrentGame()
	if len(args) > 0 {
		gameID = args[0]
	}

	if gameID == "" {
		return fmt.Errorf("specify game ID or set current game")
	}

	c := s.GetClient().(*api.Client)
	if err := c.DeleteGame(gameID); err != nil {
		return err
	}

	if gameID == s.GetCurrentGame() {
		s.SetCurrentGame("")
		s.SetLastMoveCount(0)
	}

	fmt.Printf("%sGame deleted: %s%s\n", display.Green, gameID, display.Reset)
	return nil
}

func pollHandler(s Session, args []string) error {
	gameID := s.GetCurrentGame()
	if gameID == "" {
		return fmt.Errorf(noGame)
	}

	c := s.GetClient().(*api.Client)
	moveCount := s.GetLastMoveCount()

	fmt.Printf("%sLong-polling for updates (move count: %d)...%s\n",
		display.Cyan, moveCount, display.Reset)
	fmt.Printf("%sThis may take up to 25 seconds%s\n", display.Cyan, display.Reset)

	resp, err := c.GetGameWithPoll(gameID, moveCount)
	if err != nil {
		return err
	}

	track(s, resp)

	if resp.MoveCount() != moveCount {
		fmt.Printf("%sGame updated%s\n", display.Green, display.Reset)
		if resp.LastMove != nil {
			fmt.Printf("Last move: %s\n", resp.LastMove.Notation)
		}
		printStatus(resp)
	} else {
		fmt.Printf("%sNo updates (timeout)%s\n", display.Yellow, display.Reset)
	}

	return nil
}
