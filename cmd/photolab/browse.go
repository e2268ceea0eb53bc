package main

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"gioui.org/io/key"
	"github.com/spf13/cobra"

	"github.com/fjyeo/Open-Photo-Lab/internal/app"
	"github.com/fjyeo/Open-Photo-Lab/internal/config"
	"github.com/fjyeo/Open-Photo-Lab/internal/imaging"
)

const browseHelp = `commands:
  ls                 list the catalog (* selected, > previewing)
  select N           click entry N
  open N             double-click entry N
  import [PATH...]   import paths (asks when none are given)
  export [DIR]       export selection or catalog (asks when no DIR)
  rm N...            remove entries
  status             show import and loading state
  help               this text
  quit               leave
anything else is read as a key press, e.g. Left, Right, Escape, Backspace, Ctrl+E
`

func newBrowseCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "browse [path...]",
		Short: "Interactive catalog session driven by typed commands and key names",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := loadConfig(cmd)
			cfg := mgr.Get()

			sess, err := openStore(flags.dbPath)
			if err != nil {
				return err
			}
			defer sess.Close()

			con := newConsole(cmd.InOrStdin(), cmd.OutOrStdout())
			engine := app.NewEngine(cfg, app.Deps{
				Service:   imaging.NewService(cfg.Imaging.ThumbnailQuality),
				Picker:    con,
				Confirmer: con,
				Notifier:  con,
				Charts:    con,
				Recorder:  sess,
				OnImportProgress: func(s app.ImportStatus) {
					if s.Importing {
						con.Printf("importing %d/%d (%d%%)\n", s.Completed, s.Total, s.Progress())
					}
				},
			})
			defer func() {
				engine.Close()
				engine.Wait()
			}()

			watcher, err := config.NewWatcher(mgr, 0, func(c config.Config) {
				con.Printf("config reloaded\n")
				engine.SetConfig(c)
			})
			if err != nil {
				log.Printf("Config: live reload disabled: %v", err)
			} else {
				defer watcher.Close()
			}

			ctx := cmd.Context()
			if len(args) > 0 {
				if err := engine.ImportPaths(ctx, args); err != nil {
					con.Alert(err.Error())
				}
				printCatalog(con, engine)
			}

			b := &browser{engine: engine, con: con}
			for {
				if ctx.Err() != nil {
					return nil
				}
				line, ok := con.ReadLine("> ")
				if !ok {
					return nil
				}
				if quit := b.handle(cmd, line); quit {
					return nil
				}
			}
		},
	}
}

type browser struct {
	engine *app.Engine
	con    *console
}

// handle runs one input line and reports whether the session should end
func (b *browser) handle(cmd *cobra.Command, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	ctx := cmd.Context()

	switch strings.ToLower(fields[0]) {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		b.con.Printf("%s", browseHelp)
	case "ls":
		printCatalog(b.con, b.engine)
	case "status":
		s := b.engine.Snapshot()
		b.con.Printf("entries=%d importing=%v progress=%d%% loading=%v\n",
			len(s.Entries), s.Import.Importing, s.Import.Progress(), s.LoadingFullImage)
	case "select", "open":
		id, ok := b.entryID(fields[1:])
		if !ok {
			return false
		}
		if strings.EqualFold(fields[0], "open") {
			b.engine.OpenPreview(id)
		} else {
			b.engine.Select(id)
		}
		printCatalog(b.con, b.engine)
	case "rm":
		var ids []string
		for _, f := range fields[1:] {
			if id, ok := b.entryID([]string{f}); ok {
				ids = append(ids, id)
			}
		}
		b.con.Printf("removed %d\n", b.engine.Remove(ids...))
	case "import":
		var err error
		if len(fields) > 1 {
			err = b.engine.ImportPaths(ctx, fields[1:])
		} else {
			err = b.engine.Import(ctx)
		}
		if err != nil && !errors.Is(err, app.ErrImportInProgress) {
			b.con.Alert(err.Error())
		}
		printCatalog(b.con, b.engine)
	case "export":
		if len(fields) > 1 {
			_ = b.engine.ExportTo(ctx, fields[1])
		} else {
			_ = b.engine.Export(ctx)
		}
	default:
		hk := config.ParseHotkey(line)
		ev := key.Event{Name: hk.Key, Modifiers: hk.Modifiers, State: key.Press}
		if !b.engine.HandleKey(ev) {
			b.con.Printf("no binding for %q in this view (type help)\n", line)
			return false
		}
		printCatalog(b.con, b.engine)
	}
	return false
}

// entryID resolves a 1-based catalog position to an id
func (b *browser) entryID(args []string) (string, bool) {
	if len(args) == 0 {
		b.con.Printf("entry number required\n")
		return "", false
	}
	n, err := strconv.Atoi(args[0])
	entries := b.engine.Entries()
	if err != nil || n < 1 || n > len(entries) {
		b.con.Printf("no entry %q\n", args[0])
		return "", false
	}
	return entries[n-1].ID, true
}

func printCatalog(con *console, engine *app.Engine) {
	s := engine.Snapshot()
	if len(s.Entries) == 0 {
		con.Printf("catalog is empty\n")
		return
	}

	var sb strings.Builder
	for i, e := range s.Entries {
		mark := " "
		switch {
		case e.ID == s.View.Previewing:
			mark = ">"
		case e.ID == s.View.Selected:
			mark = "*"
		}
		state := ""
		switch {
		case s.Loading[e.ID]:
			state = "loading"
		case e.HasFull():
			state = "full"
		}
		dims := ""
		if e.Thumbnail != nil {
			dims = fmt.Sprintf("%dx%d", e.Thumbnail.Width, e.Thumbnail.Height)
		}
		fmt.Fprintf(&sb, "%s %3d %s %s %s\n", mark, i+1, column(e.DisplayName, 32), column(dims, 11), state)
	}
	con.Printf("%s", sb.String())
}
