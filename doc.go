// Package modinject provides module-scoped dependency injection for component-tree UI applications.
//
// Applications are described as a graph of modules. Each module lists the providers it
// declares, the modules it imports, and the subset of its providers (or imported modules)
// it exports. A Container is built from a root module and hands out singleton instances by
// type, honoring module encapsulation: a provider is only visible where it is declared,
// where an imported module exports it, or everywhere when it is global.
//
// Declarations are made once, up front, into a Store (DefaultStore unless another is given):
//
//	type AppModule struct{}
//	type BarModule struct{}
//
//	modinject.DeclareModule(modinject.TypeOf[BarModule](),
//	    modinject.Provide(NewBarService),
//	    modinject.Exports(modinject.TypeOf[*BarService]()),
//	)
//	modinject.DeclareModule(modinject.TypeOf[AppModule](),
//	    modinject.Imports(modinject.TypeOf[BarModule]()),
//	)
//
//	c, err := modinject.NewContainer(ctx, modinject.TypeOf[AppModule]())
//	bar := modinject.Get[*BarService](ctx, c)
//
// Rendered components do not take part in the graph. They receive a narrowed View of the
// container through Bind or BindComponent and look instances up at render time.
package modinject
