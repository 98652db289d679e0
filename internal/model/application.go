package model

import "grimm.is/palisade/internal/bdd"

// Application constrains the application coordinate of a packet. An
// application carries the default services it intrinsically opens; when
// a rule uses application-default those services replace the rule's
// service column.
type Application struct {
	name      string
	value     Mvalue
	opts      *ModelOptions
	useAppSvc bool
	services  *ServiceGroup
	any       bool
}

// NewApplication builds an application atom over a single id.
func NewApplication(doms *Domains, name string, id uint16, services *ServiceGroup, opts *ModelOptions, useAppSvc bool) *Application {
	if services == nil {
		services = NewServiceGroup("")
	}
	return &Application{
		name:      name,
		value:     NewMvalue(doms, ApplicationDomain, Singleton(doms.Width(ApplicationDomain), U128(uint64(id)))),
		opts:      opts,
		useAppSvc: useAppSvc,
		services:  services,
	}
}

// WithServices returns a copy of the application bound to the given
// default services with the use-app-svc flag forced on. The filter
// combinators use it to check (application, services) pairs.
func (a *Application) WithServices(services *ServiceGroup) *Application {
	return &Application{
		name:      a.name,
		value:     a.value,
		opts:      a.opts,
		useAppSvc: true,
		services:  services,
	}
}

// AnyApplication returns the sentinel spanning every application.
func AnyApplication(doms *Domains) *Application {
	return &Application{
		name:     AnyName,
		value:    NewMvalue(doms, ApplicationDomain, doms.FullRange(ApplicationDomain)),
		opts:     EmptyOptions(),
		services: NewServiceGroup("", AnyService(doms)),
		any:      true,
	}
}

// Name returns the application name.
func (a *Application) Name() string { return a.name }

// Services returns the application's default services.
func (a *Application) Services() *ServiceGroup { return a.services }

// UseAppSvc reports whether the default services take part in the
// application's condition.
func (a *Application) UseAppSvc() bool { return a.useAppSvc }

// IsAny reports whether this is the sentinel application.
func (a *Application) IsAny() bool { return a.any }

// MakeBdd compiles the application condition. The id factor only
// applies while application modeling is enabled; the default-service
// factor only when the application carries its services.
func (a *Application) MakeBdd() bdd.Node {
	e := a.value.doms.Engine()
	if a.any {
		return e.True()
	}
	cond := e.True()
	if a.opts.Contains(OptApplication) {
		cond = e.And(cond, a.value.MakeBdd())
	}
	if a.useAppSvc {
		cond = e.And(cond, a.services.MakeBdd(e))
	}
	return cond
}

func (a *Application) String() string {
	if a.any {
		return AnyName
	}
	return a.value.String()
}

// ApplicationGroup collects the applications a rule names.
type ApplicationGroup struct {
	*Group[*Application]
}

// NewApplicationGroup allocates an application group.
func NewApplicationGroup(name string, apps ...*Application) *ApplicationGroup {
	return &ApplicationGroup{Group: NewGroup(name, apps...)}
}

// Clone deep-copies the group structure; atoms are shared.
func (g *ApplicationGroup) Clone() *ApplicationGroup {
	return &ApplicationGroup{Group: g.Group.Clone()}
}

// DefaultServices collects the intrinsic services of every application
// in the group into an application-default service group.
func (g *ApplicationGroup) DefaultServices() *ServiceGroup {
	out := NewAppDefaultServiceGroup()
	for _, app := range g.Items() {
		for _, svc := range app.services.Items() {
			out.AddItem(svc)
		}
	}
	return out
}
