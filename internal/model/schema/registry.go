package schema

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Registry owns every descriptor of a metamodel: classes, associations,
// enumerations and the table of native overrides.
//
// Registering under an existing name replaces the previous descriptor. Callers
// must not replace a class while instances of it are being created or read.
type Registry struct {
	classes      map[string]*ClassDescriptor
	associations map[string]*AssociationDescriptor
	enums        map[string][]string
	natives      map[memberKey]NativeFunc
	logger       *zap.Logger
	mu           sync.RWMutex
}

type memberKey struct {
	class  string
	member string
}

// Option configures a Registry
type Option func(*Registry)

// WithLogger sets the logger used for registration events
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRegistry creates an empty registry
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		classes:      make(map[string]*ClassDescriptor),
		associations: make(map[string]*AssociationDescriptor),
		enums:        make(map[string][]string),
		natives:      make(map[memberKey]NativeFunc),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterClass inserts the descriptor, replacing any class of the same name
func (r *Registry) RegisterClass(desc ClassDescriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("class descriptor has no name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced := r.classes[desc.Name]
	stored := desc
	r.classes[desc.Name] = &stored

	r.logger.Debug("class registered",
		zap.String("class", desc.Name),
		zap.Strings("superclasses", desc.Superclasses),
		zap.Bool("replaced", replaced))
	return nil
}

// GetClass retrieves a class descriptor by name
func (r *Registry) GetClass(name string) (*ClassDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, exists := r.classes[name]
	return desc, exists
}

// HasClass checks if a class is registered
func (r *Registry) HasClass(name string) bool {
	_, ok := r.GetClass(name)
	return ok
}

// ClassNames returns the names of all registered classes, sorted
func (r *Registry) ClassNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterAssociation inserts or replaces an association. The end types are
// not checked against the registered classes.
func (r *Registry) RegisterAssociation(desc AssociationDescriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("association descriptor has no name")
	}
	if desc.Source.Name == "" || desc.Target.Name == "" {
		return fmt.Errorf("association %s: both ends need a name", desc.Name)
	}

	stored := desc
	stored.Source.Association = desc.Name
	stored.Target.Association = desc.Name

	r.mu.Lock()
	defer r.mu.Unlock()

	r.associations[desc.Name] = &stored
	r.logger.Debug("association registered",
		zap.String("association", desc.Name),
		zap.String("source", desc.Source.Type),
		zap.String("target", desc.Target.Type))
	return nil
}

// GetAssociation retrieves an association by name
func (r *Registry) GetAssociation(name string) (*AssociationDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, exists := r.associations[name]
	return desc, exists
}

// RemoveAssociation deletes an association descriptor
func (r *Registry) RemoveAssociation(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.associations, name)
}

// Associations returns all associations sorted by name
func (r *Registry) Associations() []*AssociationDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*AssociationDescriptor, 0, len(r.associations))
	for _, a := range r.associations {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// RegisterEnumeration inserts or replaces an enumeration type
func (r *Registry) RegisterEnumeration(name string, literals ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.enums[name] = append([]string(nil), literals...)
}

// Enumeration returns the literals of an enumeration type
func (r *Registry) Enumeration(name string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lits, ok := r.enums[name]
	return lits, ok
}

// InstallNative installs a native body for a member of a class. It takes
// precedence over the member's descriptor body for that class and, unless a
// subclass installs its own, for every subclass inheriting the member.
func (r *Registry) InstallNative(class, member string, fn NativeFunc) error {
	if fn == nil {
		return fmt.Errorf("native override for %s.%s is nil", class, member)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.classes[class]; !ok {
		return fmt.Errorf("cannot install native override: class %s is not registered", class)
	}
	r.natives[memberKey{class, member}] = fn
	r.logger.Info("native override installed", zap.String("class", class), zap.String("member", member))
	return nil
}

// RemoveNative drops a native override, restoring the descriptor body
func (r *Registry) RemoveNative(class, member string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.natives, memberKey{class, member})
}

// Native returns the override installed for exactly this class and member
func (r *Registry) Native(class, member string) (NativeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.natives[memberKey{class, member}]
	return fn, ok
}

// Validate checks referential consistency of the whole schema and returns one
// message per problem. It never stops at the first problem.
func (r *Registry) Validate() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	sort.Strings(names)

	messages := make([]string, 0)
	for _, name := range names {
		desc := r.classes[name]
		for _, super := range desc.Superclasses {
			if _, ok := r.classes[super]; !ok {
				messages = append(messages,
					fmt.Sprintf("class %s: superclass %s is not registered", name, super))
			}
		}
		if r.inCycleLocked(name) {
			messages = append(messages,
				fmt.Sprintf("class %s: inheritance cycle", name))
		}
		for _, cons := range desc.Constraints {
			if cons.Redefines == "" {
				continue
			}
			if !r.redefinitionResolvesLocked(name, cons) {
				messages = append(messages,
					fmt.Sprintf("class %s: constraint %s redefines %s.%s, which is not an inherited constraint",
						name, cons.Name, cons.Redefines, cons.Name))
			}
		}
		messages = append(messages, r.endClashesLocked(name)...)
	}

	for _, msg := range messages {
		r.logger.Warn("schema inconsistency", zap.String("problem", msg))
	}
	return messages
}

// endClashesLocked reports association ends navigable from class that share
// a name. Links are stored per end name, so such ends would share storage.
func (r *Registry) endClashesLocked(class string) []string {
	var messages []string
	owners := make(map[string]string)
	for _, end := range r.endsForLocked(class) {
		owner := end.Association + "." + end.Far.Name
		if prev, ok := owners[end.Far.Name]; ok {
			messages = append(messages,
				fmt.Sprintf("class %s: association end %s is reachable through both %s and %s",
					class, end.Far.Name, prev, owner))
			continue
		}
		owners[end.Far.Name] = owner
	}
	return messages
}

func (r *Registry) redefinitionResolvesLocked(class string, cons ConstraintDescriptor) bool {
	for _, ancestor := range r.linearizeLocked(class)[1:] {
		if ancestor != cons.Redefines {
			continue
		}
		_, ok := r.classes[ancestor].Constraint(cons.Name)
		return ok
	}
	return false
}

func (r *Registry) inCycleLocked(class string) bool {
	visited := make(map[string]bool)
	var visit func(name string) bool
	visit = func(name string) bool {
		desc, ok := r.classes[name]
		if !ok {
			return false
		}
		for _, super := range desc.Superclasses {
			if super == class {
				return true
			}
			if visited[super] {
				continue
			}
			visited[super] = true
			if visit(super) {
				return true
			}
		}
		return false
	}
	return visit(class)
}
