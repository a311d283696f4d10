package app

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"gioui.org/app"
	"gioui.org/op"
	"gioui.org/unit"
	"go.uber.org/zap"

	"github.com/justyntemme/orbit/internal/config"
	"github.com/justyntemme/orbit/internal/debug"
	"github.com/justyntemme/orbit/internal/explorer"
	"github.com/justyntemme/orbit/internal/logging"
	"github.com/justyntemme/orbit/internal/metrics"
	"github.com/justyntemme/orbit/internal/platform"
	"github.com/justyntemme/orbit/internal/rpc"
	"github.com/justyntemme/orbit/internal/rpc/localbackend"
	"github.com/justyntemme/orbit/internal/store"
	"github.com/justyntemme/orbit/internal/thumbs"
	"github.com/justyntemme/orbit/internal/ui"
	"github.com/justyntemme/orbit/internal/vault"
)

const (
	imageCacheEntries = 500
	imageEdgePx       = 256
	imageLoaders      = 2
)

type Orchestrator struct {
	window *app.Window
	cfg    config.Config
	cfgErr error
	log    *zap.Logger

	db       *store.DB
	backend  *localbackend.Backend
	client   *rpc.Client
	platform *platform.Desktop

	view    *explorer.View
	thumbs  *thumbs.Cache
	session *vault.Session
	state   *StateOwner
	ui      *ui.Renderer

	dirWatch *DirectoryWatcher
}

// NewOrchestrator wires the window to cfg. cfgErr is a config parse error
// to surface in the UI; defaults are in use when it is set.
func NewOrchestrator(cfg config.Config, cfgErr error) *Orchestrator {
	w := new(app.Window)
	w.Option(app.Title("Orbit"), app.Size(unit.Dp(1100), unit.Dp(720)))

	r := ui.NewRenderer()
	r.RowHeight = cfg.Explorer.RowHeight
	r.SetHotkeys(cfg.Hotkeys)

	return &Orchestrator{
		window:   w,
		cfg:      cfg,
		cfgErr:   cfgErr,
		log:      logging.Named("app"),
		platform: platform.NewDesktop(cfg.Thumbnails.Dir, cfg.Platform.ThumbnailScheme),
		state:    NewStateOwner(w.Invalidate),
		ui:       r,
	}
}

func (o *Orchestrator) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	db, err := store.Open(o.cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()
	o.db = db

	o.backend = localbackend.New(localbackend.OptionsFromConfig(o.cfg), db)
	o.backend.Start(ctx)
	defer o.backend.Close()
	o.client = rpc.NewClient(o.backend, o.cfg.Library())

	showInspector := db.BoolSetting(ctx, store.KeyShowInspector, o.cfg.Explorer.ShowInspector)
	o.view = explorer.NewView(showInspector, o.window.Invalidate)

	// Released in reverse order: watcher first, so no event reaches a closed cache
	o.thumbs = thumbs.NewCache(o.window.Invalidate)
	defer o.thumbs.Close()
	watcher, err := thumbs.Watch(ctx, o.client, o.thumbs)
	if err != nil {
		return fmt.Errorf("subscribe to thumbnails: %w", err)
	}
	defer watcher.Stop()

	images := ui.NewImageCache(imageCacheEntries, imageEdgePx, imageLoaders, o.window.Invalidate)
	defer images.Close()
	o.ui.Thumbs = images
	o.ui.Files = o.platform
	o.ui.OnScroll = func(pane explorer.Pane, offset float32) {
		o.view.OnScroll(pane, offset)
	}

	o.session = vault.NewSession(o.client, o.window.Invalidate)
	o.ui.OnCredentials = func(password, secretKey string) {
		o.session.SetMasterPassword(password)
		o.session.SetSecretKey(secretKey)
		o.window.Invalidate()
	}
	go func() {
		if err := o.session.Refresh(ctx); err != nil {
			o.log.Warn("key manager state unavailable", zap.Error(err))
		}
	}()

	if dw, err := NewDirectoryWatcher(200); err != nil {
		o.log.Warn("directory watching disabled", zap.Error(err))
	} else {
		o.dirWatch = dw
		defer dw.Close()
		go o.watchDirectory(ctx)
	}

	if addr := o.cfg.Metrics.Addr; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr); err != nil {
				o.log.Error("metrics endpoint stopped", zap.Error(err))
			}
		}()
	}

	go o.loadLocations(ctx, 0)

	o.log.Info("started",
		zap.String("library", o.client.Library().String()),
		zap.String("store", o.cfg.Store.Path),
		zap.String("os", o.platform.OS()))

	// Event loop
	var ops op.Ops
	for {
		switch e := o.window.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			st := o.frameState()
			evt := o.ui.Layout(gtx, &st)
			o.handleUIEvent(ctx, evt)
			e.Frame(gtx.Ops)
		}
	}
}

// frameState composes everything one frame renders.
func (o *Orchestrator) frameState() ui.State {
	snap := o.view.Snapshot()
	nav := o.state.GetSnapshot()
	notice, pending := o.session.Notice()
	revealPass, revealSecret := o.session.Reveal()

	st := ui.State{
		View:        snap,
		Rows:        snap.Rows(o.thumbs, o.platform),
		Locations:   nav.Locations,
		LocationID:  nav.LocationID,
		CurrentPath: nav.Path,
		CanBack:     nav.CanBack,
		CanForward:  nav.CanForward,
		Vault: ui.VaultState{
			State:         o.session.State(),
			Known:         o.session.Known(),
			CanSubmit:     o.session.CanSubmit(),
			FormGen:       o.session.FormGeneration(),
			RevealPass:    revealPass,
			RevealSecret:  revealSecret,
			Notice:        notice,
			NoticePending: pending,
		},
		OS: o.platform.OS(),
	}
	if o.cfgErr != nil {
		st.ConfigError = o.cfgErr.Error()
	}
	return st
}

func (o *Orchestrator) handleUIEvent(ctx context.Context, evt ui.UIEvent) {
	switch evt.Action {
	case ui.ActionNone:
	case ui.ActionSelect:
		o.view.OnSelect(evt.NewIndex)
	case ui.ActionOpen:
		o.open(ctx, evt.NewIndex)
	case ui.ActionBack:
		if t, gen, ok := o.state.Back(); ok {
			o.view.OnSelect(-1)
			go o.fetch(ctx, t, gen)
		}
	case ui.ActionForward:
		if t, gen, ok := o.state.Forward(); ok {
			o.view.OnSelect(-1)
			go o.fetch(ctx, t, gen)
		}
	case ui.ActionRefresh:
		if t, gen, ok := o.state.Refresh(); ok {
			go o.fetch(ctx, t, gen)
		}
	case ui.ActionSelectLocation:
		o.navigate(ctx, Target{LocationID: evt.Location, Path: "/"})
		go o.saveSetting(ctx, store.KeyLastLocation, strconv.Itoa(evt.Location))
	case ui.ActionAddLocation:
		go o.addLocation(ctx)
	case ui.ActionToggleInspector:
		show := o.view.ToggleInspector()
		go func() {
			if err := o.db.SaveBoolSetting(ctx, store.KeyShowInspector, show); err != nil {
				o.log.Warn("save inspector visibility", zap.Error(err))
			}
		}()
	case ui.ActionRevealPassword:
		o.session.ToggleRevealPassword()
		o.window.Invalidate()
	case ui.ActionRevealSecretKey:
		o.session.ToggleRevealSecretKey()
		o.window.Invalidate()
	case ui.ActionUnlock:
		go func() {
			err := o.session.Submit(ctx)
			switch {
			case err == nil:
			case errors.Is(err, vault.ErrCredentialsRequired),
				errors.Is(err, vault.ErrUnlockInFlight),
				errors.Is(err, vault.ErrAlreadyUnlocked):
				debug.Log(debug.VAULT, "submit ignored: %v", err)
			default:
				// Rejections are reported through the session's notice
				debug.Log(debug.VAULT, "submit failed: %v", err)
			}
		}()
	case ui.ActionLock:
		go func() {
			// Backend failures are informational; the session already shows Locked
			if err := o.session.LockAll(ctx); errors.Is(err, vault.ErrNotUnlocked) {
				debug.Log(debug.VAULT, "lock ignored: %v", err)
			}
		}()
	case ui.ActionOpenEncrypt:
		o.openCryptoDialog(explorer.DialogEncrypt)
	case ui.ActionOpenDecrypt:
		o.openCryptoDialog(explorer.DialogDecrypt)
	case ui.ActionCloseDialog:
		o.view.CloseDialog(evt.Dialog)
	case ui.ActionAcknowledgeNotice:
		o.session.AcknowledgeNotice()
	case ui.ActionShowDevtools:
		o.platform.ShowDevtools()
		o.log.Info("devtools enabled")
	case ui.ActionOpenConfig:
		link := (&url.URL{Scheme: "file", Path: filepath.ToSlash(config.Dir())}).String()
		if err := o.platform.OpenLink(link); err != nil {
			o.view.OpenAlert("Could not open link", err.Error())
		}
	default:
		debug.Log(debug.APP, "unhandled action %d", evt.Action)
	}
}

// open enters a directory or hands a file to the host.
func (o *Orchestrator) open(ctx context.Context, index int) {
	snap := o.view.Snapshot()
	it, ok := snap.Listing.At(index)
	if !ok {
		return
	}
	nav := o.state.GetSnapshot()

	p, isPath := it.(*explorer.Path)
	if !isPath {
		// Objects carry no location path
		o.view.OnSelect(index)
		return
	}
	if p.IsDir {
		o.navigate(ctx, Target{LocationID: nav.LocationID, Path: childRel(nav.Path, p.Name)})
		return
	}

	abs, ok := o.state.AbsPath(nav.LocationID, p.MaterializedPath)
	if !ok {
		return
	}
	go func() {
		if err := o.platform.OpenPath(abs); err != nil {
			o.log.Warn("open file", zap.String("path", abs), zap.Error(err))
			o.view.OpenAlert("Could not open file", err.Error())
		}
	}()
}

func (o *Orchestrator) openCryptoDialog(kind explorer.DialogKind) {
	objectID := 0
	if it, ok := o.view.Snapshot().SelectedItem(); ok {
		objectID = it.ItemID()
	}
	o.view.SetContextTarget(o.state.GetSnapshot().LocationID, objectID)
	o.view.OpenCryptoDialog(kind, o.session.State() == vault.Unlocked)
}

// navigate records t and fetches its listing. Selection is cleared.
func (o *Orchestrator) navigate(ctx context.Context, t Target) {
	gen := o.state.Navigate(t)
	o.view.OnSelect(-1)
	go o.fetch(ctx, t, gen)
}

// fetch loads t's listing. A response for a superseded request is dropped.
func (o *Orchestrator) fetch(ctx context.Context, t Target, gen uint64) {
	data, err := o.client.ExplorerData(ctx, t.LocationID, t.Path)
	if !o.state.IsCurrent(gen) {
		debug.Log(debug.APP, "fetch: dropping stale listing gen=%d", gen)
		return
	}
	if err != nil {
		if ctx.Err() == nil {
			o.log.Warn("load directory", zap.Int("location", t.LocationID), zap.String("path", t.Path), zap.Error(err))
			o.view.OpenAlert("Could not load directory", err.Error())
		}
		return
	}
	o.view.SetListing(explorer.ListingFromWire(data))

	if o.dirWatch != nil {
		if abs, ok := o.state.AbsPath(t.LocationID, t.Path); ok {
			if err := o.dirWatch.Follow(abs); err != nil {
				debug.Log(debug.APP, "watch %s: %v", abs, err)
			}
		}
	}
}

// loadLocations refreshes the location list and, when nothing is open yet,
// opens focus (or the last used location, or the first one).
func (o *Orchestrator) loadLocations(ctx context.Context, focus int) {
	locs, err := o.client.ListLocations(ctx)
	if err != nil {
		o.log.Error("list locations", zap.Error(err))
		o.view.OpenAlert("Could not load locations", err.Error())
		return
	}
	o.state.SetLocations(locs)
	if len(locs) == 0 {
		return
	}

	target := focus
	if target == 0 {
		if o.state.GetSnapshot().LocationID != 0 {
			return
		}
		target = locs[0].ID
		if v, ok, err := o.db.Setting(ctx, store.KeyLastLocation); err == nil && ok {
			if id, err := strconv.Atoi(v); err == nil {
				if _, known := o.state.Location(id); known {
					target = id
				}
			}
		}
	}
	o.navigate(ctx, Target{LocationID: target, Path: "/"})
}

func (o *Orchestrator) addLocation(ctx context.Context) {
	dir, err := o.platform.OpenFilePickerDialog()
	if err != nil {
		o.view.OpenAlert("Could not add location", err.Error())
		return
	}
	if dir == "" {
		return
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		o.view.OpenAlert("Could not add location", dir+" is not a directory")
		return
	}
	loc := o.backend.AddLocation(dir)
	o.loadLocations(ctx, loc.ID)
}

// watchDirectory refetches the open directory when it changes on disk.
func (o *Orchestrator) watchDirectory(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case dir := <-o.dirWatch.Notify():
			t, gen, ok := o.state.Refresh()
			if !ok {
				continue
			}
			debug.Log(debug.APP, "directory changed: %s", dir)
			o.fetch(ctx, t, gen)
		}
	}
}

func (o *Orchestrator) saveSetting(ctx context.Context, key, value string) {
	if err := o.db.SaveSetting(ctx, key, value); err != nil {
		o.log.Warn("save setting", zap.String("key", key), zap.Error(err))
	}
}

// Main runs the window on its own goroutine and hands the main thread to gio.
func Main(cfg config.Config, cfgErr error) {
	go func() {
		o := NewOrchestrator(cfg, cfgErr)
		err := o.Run(context.Background())
		_ = logging.Sync()
		if err != nil {
			logging.L().Fatal("orbit exited", zap.Error(err))
		}
		os.Exit(0)
	}()
	app.Main()
}
