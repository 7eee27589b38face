package transport

// PluginReason is the lifecycle event passed to a hook plugin's LibMain
// (spec §4.4.5).
type PluginReason int

const (
	PluginInit PluginReason = iota
	PluginFree
	PluginThreadCreate
	PluginThreadDestroy
	PluginReload
)

// LibMain is the entry point contract every hook plugin exposes (spec
// §4.4.5 HOOK_LibMain). Returning false from a PluginInit call means setup
// failed: the plugin is rejected and unloaded immediately, and any service
// registrations it made are rolled back — by whatever loader invoked
// LibMain, which is out of scope here (spec §1 excludes "service-plugin
// dynamic loading"; only the contract is specified).
type LibMain func(reason PluginReason, services Services) bool

// Services is the capability-callback vector a plugin requests from during
// HOOK_LibMain (spec §6.3). GetContext/PutContext/EnqueueContext are
// available outside of a hook invocation (e.g. during PLUGIN_INIT
// warm-up); ThrowContext is deliberately absent here because it requires
// the calling worker's own per-thread anti-loop state (spec §4.4.3) —
// that's why Hook itself receives a *Dispatcher argument instead of
// reaching through this global vector.
type Services struct {
	RegisterHook      func(name string, fn Hook) *HookEntry
	RegisterLocal     func(name string, fn Hook) (*HookEntry, error)
	RegisterTalk      func(name string, fn func(args []string) string) bool
	GetHostID         func() string
	GetDefaultDomain  func() string
	GetAdminMailbox   func() string
	GetPluginName     func() string
	GetConfigPath     func() string
	GetDataPath       func() string
	GetStatePath      func() string
	GetQueuePath      func() string
	GetThreadsNum     func() int
	GetContextNum     func() int
	GetContext        func() (*MessageContext, bool)
	PutContext        func(*MessageContext)
	EnqueueContext    func(*MessageContext)
	IsDomainlistValid func() bool
}

// PluginEnv carries the static, per-deployment values NewServices closes
// over (spec §6.3: get_host_ID, get_default_domain, get_admin_mailbox,
// get_{config,data,state,queue}_path, is_domainlist_valid). Populating
// these from actual configuration is out of scope (spec §1 excludes
// configuration parsing).
type PluginEnv struct {
	PluginName      string
	HostID          string
	DefaultDomain   string
	AdminMailbox    string
	ConfigPath      string
	DataPath        string
	StatePath       string
	QueuePath       string
	DomainlistValid bool
	RegisterTalk    func(name string, fn func(args []string) string) bool
}

// NewServices builds the Services vector a plugin sees during LibMain
// (spec §6.3).
func (p *WorkerPool) NewServices(env PluginEnv) Services {
	registerTalk := env.RegisterTalk
	if registerTalk == nil {
		registerTalk = func(string, func([]string) string) bool { return false }
	}
	return Services{
		RegisterHook:      p.registry.RegisterHook,
		RegisterLocal:     p.registry.RegisterLocal,
		RegisterTalk:      registerTalk,
		GetHostID:         func() string { return env.HostID },
		GetDefaultDomain:  func() string { return env.DefaultDomain },
		GetAdminMailbox:   func() string { return env.AdminMailbox },
		GetPluginName:     func() string { return env.PluginName },
		GetConfigPath:     func() string { return env.ConfigPath },
		GetDataPath:       func() string { return env.DataPath },
		GetStatePath:      func() string { return env.StatePath },
		GetQueuePath:      func() string { return env.QueuePath },
		GetThreadsNum:     func() int { return p.cfg.ThreadsMax },
		GetContextNum:     func() int { return p.cfg.FreeContexts },
		GetContext:        p.ctxPool.Get,
		PutContext:        p.ctxPool.Put,
		EnqueueContext:    p.reinject.Push,
		IsDomainlistValid: func() bool { return env.DomainlistValid },
	}
}
