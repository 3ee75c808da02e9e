package cli

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"coursehub/internal/api"
	"coursehub/internal/navigation"
	"coursehub/internal/notify"
	"coursehub/internal/platform/config"
	"coursehub/internal/platform/logger"
	dErrors "coursehub/pkg/domain-errors"
)

const (
	annotationRoute     = "route"
	annotationNoSession = "no-session"
)

// errReported marks failures whose notice has already been shown.
var errReported = errors.New("reported")

// Streams are the process's standard streams.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

type globalFlags struct {
	baseURL  string
	store    string
	stateDir string
	logLevel string
	quiet    bool
	json     bool
}

// runtime carries state from the root's pre-run hook into the command bodies.
type runtime struct {
	streams  Streams
	flags    globalFlags
	notifier notify.Notifier
	recorder *notify.Recorder
	app      *App
	// redirected is set when the guard sent the command elsewhere.
	redirected navigation.Location
}

// Execute runs the command tree with args and returns the process exit code.
func Execute(ctx context.Context, streams Streams, args []string) int {
	rt := &runtime{streams: streams}
	root := newRootCommand(rt)
	root.SetArgs(args)
	root.SetIn(streams.In)
	root.SetOut(streams.Out)
	root.SetErr(streams.Err)

	err := root.ExecuteContext(ctx)
	if err != nil {
		rt.report(ctx, err)
	}
	if rt.app != nil {
		rt.app.Close()
	}
	rt.flushNotices()
	if err != nil {
		return 1
	}
	return 0
}

func newRootCommand(rt *runtime) *cobra.Command {
	root := &cobra.Command{
		Use:   "coursehub",
		Short: "Student course selection from the terminal",
		Long: `coursehub talks to the course-selection backend: log in once, then browse
courses, enroll, message classmates and manage your campus-card balance.

The session is kept in a local state file by default; --store selects
memory, redis or postgres instead.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: rt.preRun,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&rt.flags.baseURL, "base-url", "", "Backend base URL (env COURSEHUB_BASE_URL)")
	pf.StringVar(&rt.flags.store, "store", "", "Session store: file, memory, redis or postgres")
	pf.StringVar(&rt.flags.stateDir, "state-dir", "", "Directory of the file session store")
	pf.StringVar(&rt.flags.logLevel, "log-level", "", "Log level: debug, info, warn or error")
	pf.BoolVarP(&rt.flags.quiet, "quiet", "q", false, "Collect notices and print them as JSON on exit")
	pf.BoolVar(&rt.flags.json, "json", false, "Print results as JSON")

	root.AddCommand(
		loginCmd(rt),
		registerCmd(rt),
		logoutCmd(rt),
		whoamiCmd(rt),
		refreshCmd(rt),
		coursesCmd(rt),
		enrollCmd(rt),
		dropCmd(rt),
		myCoursesCmd(rt),
		enrollmentsCmd(rt),
		friendsCmd(rt),
		messagesCmd(rt),
		notificationsCmd(rt),
		balanceCmd(rt),
		transferCmd(rt),
		historyCmd(rt),
		rechargeCmd(rt),
		statusCmd(rt),
		watchCmd(rt),
		versionCmd(rt),
	)
	return root
}

// routed attaches the page a command stands for.
func routed(cmd *cobra.Command, path string) *cobra.Command {
	if cmd.Annotations == nil {
		cmd.Annotations = map[string]string{}
	}
	cmd.Annotations[annotationRoute] = path
	return cmd
}

func (rt *runtime) preRun(cmd *cobra.Command, _ []string) error {
	if rt.flags.quiet {
		rt.recorder = notify.NewRecorder()
		rt.notifier = rt.recorder
	} else {
		rt.notifier = notify.NewConsole(rt.streams.Err, colorEnabled(rt.streams.Err))
	}
	if cmd.Annotations[annotationNoSession] == "true" {
		return nil
	}

	cfg, err := rt.loadConfig(cmd)
	if err != nil {
		return err
	}
	log := logger.New(rt.streams.Err, cfg.Log.Level, cfg.Log.Format)

	ctx := cmd.Context()
	rt.app, err = Build(ctx, cfg, rt.notifier, log)
	if err != nil {
		return err
	}
	if err := rt.app.Auth.Init(ctx); err != nil {
		return err
	}
	return rt.enter(ctx, cmd.Annotations[annotationRoute])
}

// enter navigates to route. Commands whose route the guard refuses stop here,
// except login and register which handle "already logged in" themselves.
func (rt *runtime) enter(ctx context.Context, route string) error {
	if route == "" {
		return nil
	}
	nav := rt.app.Navigator
	visitsBefore := nav.LoginVisits()

	loc, _, err := nav.Push(ctx, route)
	if err != nil {
		return err
	}
	want := navigation.ParseLocation(route).Path
	if loc.Path == want {
		return nil
	}
	rt.redirected = loc

	switch {
	case want == navigation.PathLogin || want == navigation.PathRegister:
		return nil
	case loc.Path == navigation.PathLogin:
		if visitsBefore == 0 {
			notify.Warning(ctx, rt.notifier, "please log in first: coursehub login")
		}
		return errReported
	default:
		// role mismatch, the guard has shown its notice
		return errReported
	}
}

func (rt *runtime) loadConfig(cmd *cobra.Command) (config.Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Client{}, err
	}
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = rt.flags.baseURL
	}
	if flags.Changed("store") {
		cfg.Store = rt.flags.store
	}
	if flags.Changed("state-dir") {
		cfg.StateDir = rt.flags.stateDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = rt.flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return config.Client{}, err
	}
	return cfg, nil
}

// report shows err unless the interceptor or the auth service already did.
func (rt *runtime) report(ctx context.Context, err error) {
	if rt.notifier == nil {
		rt.notifier = notify.NewConsole(rt.streams.Err, false)
	}
	var classified *dErrors.Error
	switch {
	case errors.Is(err, errReported):
	case errors.Is(err, api.ErrInvalidInput):
		notify.Error(ctx, rt.notifier, dErrors.MessageOf(err))
	case errors.As(err, &classified) && classified.Code != dErrors.CodeInternal:
	default:
		notify.Error(ctx, rt.notifier, err.Error())
	}
}

func (rt *runtime) flushNotices() {
	if rt.recorder == nil {
		return
	}
	notices := rt.recorder.Notices()
	if notices == nil {
		notices = []notify.Notice{}
	}
	enc := json.NewEncoder(rt.streams.Err)
	_ = enc.Encode(map[string]any{"notices": notices})
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" || strings.EqualFold(os.Getenv("TERM"), "dumb") {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
