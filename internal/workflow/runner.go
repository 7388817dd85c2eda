package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/0x6d61/reportwiz/internal/eventcfg"
	"github.com/0x6d61/reportwiz/internal/rules"
	"github.com/0x6d61/reportwiz/internal/runevent"
)

// ThankYou をログに出したコマンドは、現在のイベントでチェーン全体を終わらせる。
const ThankYou = "THANKYOU"

// EnvWorkflow はワークフロー実行中に子プロセスへ渡す変数名。
const EnvWorkflow = "LIBREPORT_WORKFLOW"

// Runner はイベントの並びを1つの問題ディレクトリに対して実行する。
type Runner struct {
	Rules     *rules.Set
	Config    *eventcfg.Registry // nil なら設定値を渡さない
	UI        runevent.Interaction
	Decisions runevent.DecisionStore
	Shell     string
	Env       []string
	Logger    *slog.Logger

	HighWatermark int
	LowWatermark  int

	// OnStart は各イベントの開始直前に呼ばれる（TUI がキャンセル先を覚えるため）。
	OnStart func(st *runevent.State)
}

// Result はチェーン全体の結果。
type Result struct {
	Outcomes []runevent.Outcome // 実行したイベントの結果（スキップしたものは含まない）
	Skipped  []string           // コマンドがなかったイベント
	ThankYou bool               // THANKYOU で打ち切った
}

// Last は最後に実行したイベントの結果を返す。
func (r Result) Last() (runevent.Outcome, bool) {
	if len(r.Outcomes) == 0 {
		return runevent.Outcome{}, false
	}
	return r.Outcomes[len(r.Outcomes)-1], true
}

// Err は最後のイベントが失敗していればそのエラーを返す。
func (r Result) Err() error {
	last, ok := r.Last()
	if !ok {
		return nil
	}
	return last.Err()
}

// RunWorkflow は wf のイベントを順に実行する。
func (r *Runner) RunWorkflow(ctx context.Context, dir string, wf *Workflow) (Result, error) {
	return r.run(ctx, dir, wf.Name, wf.Events)
}

// RunEvents はワークフローなしでイベントを順に実行する。
func (r *Runner) RunEvents(ctx context.Context, dir string, events []string) (Result, error) {
	return r.run(ctx, dir, "", events)
}

func (r *Runner) run(ctx context.Context, dir, workflow string, events []string) (Result, error) {
	logger := r.logger().With("workflow", workflow)
	var res Result
	var errs []error

	chain, err := ExpandWildcards(r.Rules, dir, events)
	if err != nil {
		return res, err
	}
	logger.Info("running event chain", "events", strings.Join(chain, ","))

	for _, event := range chain {
		if ctx.Err() != nil {
			break
		}
		queue := r.Rules.Queue(dir, event)
		if queue.Remaining() == 0 {
			logger.Warn("event has no commands, skipping", "event", event)
			res.Skipped = append(res.Skipped, event)
			continue
		}
		if r.Config != nil {
			if err := r.Config.Validate(event); err != nil {
				logger.Warn("event configuration is incomplete", "event", event, "err", err)
			}
		}

		watcher := &thankYouWatcher{Interaction: r.ui()}
		st, err := runevent.New(r.stateOptions(dir, event, workflow, queue, watcher))
		if err != nil {
			return res, err
		}
		if r.OnStart != nil {
			r.OnStart(st)
		}
		out, runErr := st.Run(ctx)
		if runErr != nil {
			errs = append(errs, runErr)
		}

		if out.Status == runevent.StatusNoCommands {
			res.Skipped = append(res.Skipped, event)
			continue
		}
		res.Outcomes = append(res.Outcomes, out)

		switch {
		case out.NotReportable():
			logger.Info("problem is not reportable, aborting chain", "event", event)
			return res, errors.Join(errs...)
		case !out.Success():
			logger.Warn("event failed, stopping chain", "event", event, "status", out.Status.String(), "err", out.Err())
			return res, errors.Join(errs...)
		case out.Status == runevent.StatusStopped:
			logger.Info("event asked to stop the chain", "event", event)
			return res, errors.Join(errs...)
		case watcher.seen.Load():
			res.ThankYou = true
			logger.Info("event finished the chain", "event", event)
			return res, errors.Join(errs...)
		}
	}
	return res, errors.Join(errs...)
}

func (r *Runner) stateOptions(dir, event, workflow string, queue *rules.Queue, ui runevent.Interaction) runevent.Options {
	env := append([]string(nil), r.Env...)
	if workflow != "" {
		env = append(env, EnvWorkflow+"="+workflow)
	}
	opts := runevent.Options{
		Dir:       dir,
		Event:     event,
		Commands:  queue,
		UI:        ui,
		Decisions: r.Decisions,
		Env:       env,
		Shell:     r.Shell,
		Log:       runevent.NewEventLog(r.HighWatermark, r.LowWatermark),
		Logger:    r.logger(),
	}
	if r.Config != nil {
		opts.Exporter = r.Config
	}
	return opts
}

func (r *Runner) ui() runevent.Interaction {
	if r.UI == nil {
		return runevent.Callbacks{}
	}
	return r.UI
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

// thankYouWatcher は THANKYOU 行を見つけたら印を付ける。
type thankYouWatcher struct {
	runevent.Interaction
	seen atomic.Bool
}

func (w *thankYouWatcher) Log(line string) {
	if strings.TrimSpace(line) == ThankYou {
		w.seen.Store(true)
	}
	w.Interaction.Log(line)
}

// ExpandWildcards は "*" で終わるイベント名を、dir に適用できるイベントへ展開する。
// 展開結果はルールファイルの順。何にも一致しないパターンは消える。
func ExpandWildcards(set *rules.Set, dir string, events []string) ([]string, error) {
	var out []string
	for _, ev := range events {
		prefix, ok := strings.CutSuffix(ev, "*")
		if !ok {
			out = append(out, ev)
			continue
		}
		matched, err := set.ListEvents(dir, prefix)
		if err != nil {
			return nil, fmt.Errorf("workflow: expand %s: %w", ev, err)
		}
		out = append(out, matched...)
	}
	return out, nil
}
