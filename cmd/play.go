package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/robalobadob/puzzli/internal/exercises"
	"github.com/robalobadob/puzzli/internal/game"
	"github.com/robalobadob/puzzli/internal/geom"
	"github.com/robalobadob/puzzli/internal/puzzle"
)

func init() {
	playCmd := &cobra.Command{
		Use:   "play [exercise-id]",
		Short: "Play an exercise in the terminal",
		Long: `Play an exercise in the terminal. Pieces are moved by typing commands;
type 'help' once inside.

Examples:
  puzzli play
  puzzli play cat-eats-fish --dir ./exercises`,
		Args: cobra.MaximumNArgs(1),
		RunE: runPlay,
	}
	addDirFlag(playCmd.Flags())
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dir := exercisesDir
	if dir == "" {
		dir = cfg.ExercisesDir
	}
	cat, err := exercises.Load(dir)
	if err != nil {
		return err
	}
	ex := cat.At(0)
	if len(args) == 1 {
		if ex, err = cat.Get(args[0]); err != nil {
			return err
		}
	}
	g, err := game.New(ex, game.WithLogger(log.Logger), game.WithSnapOptions(cfg.SnapOptions()...))
	if err != nil {
		return err
	}
	return (&player{g: g, out: cmd.OutOrStdout()}).run()
}

// player interprets REPL commands against one game.
type player struct {
	g     *game.Game
	out   io.Writer
	liner *liner.State
}

var playCommands = []string{
	"help", "show", "links", "grab", "move", "to", "drop", "cancel",
	"place", "rotate", "text", "remove", "disconnect", "status", "quit",
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".puzzli_history")
}

func (p *player) run() error {
	p.liner = liner.NewLiner()
	defer p.liner.Close()
	p.liner.SetCtrlCAborts(true)
	p.liner.SetCompleter(func(line string) []string {
		var out []string
		for _, c := range playCommands {
			if strings.HasPrefix(c, strings.ToLower(line)) {
				out = append(out, c)
			}
		}
		return out
	})
	if f, err := os.Open(historyFile()); err == nil {
		_, _ = p.liner.ReadHistory(f)
		f.Close()
	}
	defer p.saveHistory()

	ex := p.g.Exercise()
	fmt.Fprintf(p.out, "%s (%s)\n%s\nType 'help' for commands.\n\n", ex.ID, ex.Type, ex.Task)
	p.show()

	for {
		line, err := p.liner.Prompt("puzzli> ")
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			fmt.Fprintln(p.out, "\nBye!")
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		p.liner.AppendHistory(line)
		if p.exec(line) {
			return nil
		}
	}
}

func (p *player) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			_, _ = p.liner.WriteHistory(f)
			f.Close()
		}
	}
}

// exec runs one command line and reports whether the session should end.
func (p *player) exec(line string) (quit bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd, args := strings.ToLower(parts[0]), parts[1:]

	var err error
	switch cmd {
	case "quit", "exit", "q":
		fmt.Fprintln(p.out, "Bye!")
		return true
	case "help", "?":
		p.help()
	case "show", "ls":
		p.show()
	case "links":
		p.links()
	case "status":
		p.status()
	case "grab":
		err = p.grab(args)
	case "move":
		err = p.drag(args, p.g.DragBy)
	case "to":
		err = p.drag(args, p.g.DragTo)
	case "drop":
		err = p.drop()
	case "cancel":
		p.g.CancelDrag()
	case "place":
		err = p.place(args)
	case "rotate":
		err = p.rotate(args)
	case "text":
		err = p.text(args)
	case "remove", "rm":
		err = p.remove(args)
	case "disconnect":
		err = p.disconnect(args)
	default:
		fmt.Fprintf(p.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(p.out, "error: %v\n", err)
	}
	return false
}

func (p *player) help() {
	fmt.Fprint(p.out, `Commands:
  show                      List pieces
  links                     List connections
  grab <id> | grab <x> <y>  Start dragging a piece
  move <dx> <dy>            Drag by an offset
  to <x> <y>                Drag to a position
  drop                      Release (snaps if a pair is lit)
  cancel                    Release without snapping
  place <id> <x> <y>        grab + to + drop
  rotate <id> [left|right]  Quarter turn an unconnected piece
  text <id> <words...>      Edit an unconnected piece
  remove <id>               Remove a piece (create/complete tasks)
  disconnect <n>            Break connection n (see links)
  status                    Moves, time, solved
  quit                      Leave
`)
}

func (p *player) show() {
	v := p.g.Snapshot()
	for _, pv := range v.Pieces {
		fmt.Fprintf(p.out, "[%d] %-9s %-16q at (%.1f, %.1f) size %.0f depth %d conn %d\n",
			pv.ID, pv.Role, pv.Text, pv.Pos.X, pv.Pos.Y, pv.Size, pv.Depth, pv.Connections)
		for _, f := range pv.Features {
			mark := " "
			if f.Highlighted {
				mark = "*"
			}
			label := ""
			if f.Kind == puzzle.KindTab.String() {
				label = " " + f.Role.String()
			}
			fmt.Fprintf(p.out, "     %s %-5s %-6s%s\n", mark, f.Kind, f.Side, label)
		}
	}
}

func (p *player) links() {
	v := p.g.Snapshot()
	if len(v.Connections) == 0 {
		fmt.Fprintln(p.out, "no connections")
		return
	}
	for i, c := range v.Connections {
		fmt.Fprintf(p.out, "%d: %s\n", i, c)
	}
}

func (p *player) status() {
	v := p.g.Snapshot()
	state := "unsolved"
	switch {
	case !v.Solvable:
		state = "free play"
	case v.Solved:
		state = "solved"
	}
	fmt.Fprintf(p.out, "moves %d, elapsed %s, %s\n", v.Moves, p.g.Elapsed().Round(time.Second), state)
}

func (p *player) grab(args []string) error {
	switch len(args) {
	case 1:
		id, err := pieceArg(args[0])
		if err != nil {
			return err
		}
		return p.g.BeginDrag(id)
	case 2:
		pt, err := vecArgs(args)
		if err != nil {
			return err
		}
		id, err := p.g.BeginDragAt(pt)
		if err == nil {
			fmt.Fprintf(p.out, "grabbed [%d]\n", id)
		}
		return err
	}
	return errors.New("usage: grab <id> | grab <x> <y>")
}

func (p *player) drag(args []string, op func(geom.Vec2) (game.DragUpdate, error)) error {
	v, err := vecArgs(args)
	if err != nil {
		return err
	}
	u, err := op(v)
	if err != nil {
		return err
	}
	for _, c := range u.Severed {
		fmt.Fprintf(p.out, "severed %s\n", c)
	}
	if u.Pending != nil {
		fmt.Fprintf(p.out, "snap ready: %s -> %s (%.1f)\n", u.Pending.Moving, u.Pending.Target, u.Pending.Distance)
	}
	return nil
}

func (p *player) drop() error {
	r, err := p.g.EndDrag()
	if err != nil {
		return err
	}
	if r.Connection != nil {
		fmt.Fprintf(p.out, "snapped %s\n", r.Connection)
	}
	if r.Solved {
		fmt.Fprintf(p.out, "Solved in %d moves!\n", p.g.Moves())
	}
	return nil
}

func (p *player) place(args []string) error {
	if len(args) != 3 {
		return errors.New("usage: place <id> <x> <y>")
	}
	if err := p.grab(args[:1]); err != nil {
		return err
	}
	if err := p.drag(args[1:], p.g.DragTo); err != nil {
		p.g.CancelDrag()
		return err
	}
	return p.drop()
}

func (p *player) rotate(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("usage: rotate <id> [left|right]")
	}
	id, err := pieceArg(args[0])
	if err != nil {
		return err
	}
	dir := puzzle.RotateRight
	if len(args) == 2 {
		if dir, err = puzzle.ParseRotateDir(args[1]); err != nil {
			return err
		}
	}
	return p.g.Rotate(id, dir)
}

func (p *player) text(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: text <id> <words...>")
	}
	id, err := pieceArg(args[0])
	if err != nil {
		return err
	}
	return p.g.SetText(id, strings.Join(args[1:], " "))
}

func (p *player) remove(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: remove <id>")
	}
	id, err := pieceArg(args[0])
	if err != nil {
		return err
	}
	return p.g.RemovePiece(id)
}

func (p *player) disconnect(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: disconnect <n>")
	}
	n, err := strconv.Atoi(args[0])
	conns := p.g.Snapshot().Connections
	if err != nil || n < 0 || n >= len(conns) {
		return fmt.Errorf("no connection %q", args[0])
	}
	return p.g.Disconnect(conns[n])
}

func pieceArg(s string) (puzzle.PieceID, error) {
	n, err := strconv.Atoi(strings.Trim(s, "[]"))
	if err != nil {
		return 0, fmt.Errorf("bad piece id %q", s)
	}
	return puzzle.PieceID(n), nil
}

func vecArgs(args []string) (geom.Vec2, error) {
	if len(args) != 2 {
		return geom.Vec2{}, errors.New("want two numbers")
	}
	x, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return geom.Vec2{}, fmt.Errorf("bad number %q", args[0])
	}
	y, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return geom.Vec2{}, fmt.Errorf("bad number %q", args[1])
	}
	return geom.V(x, y), nil
}
