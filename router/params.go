package router

import "strconv"

// Params holds path parameters bound by name. Values are the raw path segments.
type Params map[string]string

// Get returns the named parameter.
func (p Params) Get(name string) (string, bool) {
	v, ok := p[name]
	return v, ok
}

// Int64 parses the named parameter as a base-10 integer.
func (p Params) Int64(name string) (int64, error) {
	v, ok := p[name]
	if !ok {
		return 0, &ParamError{Name: name}
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, &ParamError{Name: name, Value: v, Err: err}
	}
	return n, nil
}

// ParamError reports a missing or unconvertible path parameter.
type ParamError struct {
	Name  string
	Value string
	Err   error
}

func (e *ParamError) Error() string {
	if e.Err == nil {
		return "missing path parameter " + e.Name
	}
	return "path parameter " + e.Name + "=" + strconv.Quote(e.Value) + ": " + e.Err.Error()
}

func (e *ParamError) Unwrap() error { return e.Err }
