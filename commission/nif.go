package commission

// NifTypeOf classifies a Portuguese NIF by its first character:
// '5' is a collective person (5xx), '1'/'2'/'3' an individual (123xxx).
// Anything else, including an empty NIF, is NifAll.
func NifTypeOf(nif string) NifType {
	if len(nif) < 1 {
		return NifAll
	}
	switch nif[0] {
	case '5':
		return Nif5xx
	case '1', '2', '3':
		return Nif123xxx
	default:
		return NifAll
	}
}

// effectiveNifType applies the setting's NIF differentiation switch.
func effectiveNifType(s Setting, nif string) NifType {
	if !s.NifDifferentiation {
		return NifAll
	}
	return NifTypeOf(nif)
}
