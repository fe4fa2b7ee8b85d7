// Package call runs script functions through a small staging state
// machine.
//
// A Callable moves through bound → invoked → (rearmed | closed):
//
//	add := call.FromGlobal(eng, "add")
//	if add == nil {
//	    // no such function
//	}
//	defer add.Close()
//
//	add.ArgNumber(10.5)
//	add.ArgNumber(20.2)
//	if flags, err := add.Invoke(1); err != nil {
//	    status, msg := engine.Classify(err)
//	    _ = flags // fatal
//	    _ = status
//	    _ = msg
//	}
//	sum, _ := extract.Number[float64](eng)
//
// Opening pushes (or adopts) the function at a base slot; each Arg call
// stages one value above it; Invoke hands everything to the engine's
// protected call, which consumes function and arguments on success and
// failure alike. Staging arguments again after an invocation rearms the
// Callable — results still on the stack are discarded and the anchored
// function is pushed fresh. Close truncates back to below the base slot,
// so a balanced open/Close pair restores the stack depth no matter what
// happened in between.
package call
