package compare

import "strings"

// SplitMachineIDs resolves the backend/live machine-ID sets for a pass.
// Explicit selections win; otherwise the backend side defaults to
// preferredBackend when that machine exists (else the first known id) and
// the live side takes every remaining machine.
func SplitMachineIDs(known []string, backendSel, liveSel []string, preferredBackend string) (backend, live []string) {
	backend = cleanIDs(backendSel)
	live = cleanIDs(liveSel)
	if len(backend) > 0 || len(live) > 0 {
		if len(backend) > 0 && len(live) == 0 {
			live = subtractIDs(known, backend)
		}
		if len(live) > 0 && len(backend) == 0 {
			backend = subtractIDs(known, live)
		}
		return backend, live
	}
	if len(known) == 0 {
		return nil, nil
	}
	def := strings.TrimSpace(preferredBackend)
	if def == "" || !containsID(known, def) {
		def = known[0]
	}
	backend = []string{def}
	live = subtractIDs(known, backend)
	return backend, live
}

func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func subtractIDs(all, remove []string) []string {
	drop := make(map[string]bool, len(remove))
	for _, id := range remove {
		drop[id] = true
	}
	out := make([]string, 0, len(all))
	for _, id := range all {
		id = strings.TrimSpace(id)
		if id == "" || drop[id] {
			continue
		}
		out = append(out, id)
	}
	return out
}

func containsID(ids []string, want string) bool {
	for _, id := range ids {
		if strings.TrimSpace(id) == want {
			return true
		}
	}
	return false
}
