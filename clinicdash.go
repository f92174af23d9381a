// Package clinicdash is a dashboard service for clinic pre-registration
// records kept in one CSV file.
//
// Usage:
//
//	st, err := store.Load("veri.csv", schema.DefaultRoles())
//	if err != nil { ... }
//
//	result := engine.Execute(st.Dataset(), engine.FilterSpec{
//	    DateStart:  engine.Time(jan1),
//	    DateEnd:    engine.Time(jan31),
//	    Categories: map[string][]string{"Kaynak": {"Instagram"}},
//	})
//
// The store loads the CSV once and never changes afterwards. The engine
// filters it into zero-copy views and returns render-ready output: KPI
// cards, chart configurations and a descriptive statistics table.
// The server package serves the same pipeline over HTTP and cmd/clinicdash
// wraps it in a CLI. All computation is local.
package clinicdash
