// Package decl reads component declarations from YAML.
//
// A document names its apiVersion, which must satisfy SupportedVersions,
// and lists modules, components and a catalog of types the graph builder
// may materialize on demand. Parse converts the document into model
// declarations and reports every problem it finds at once:
//
//	d, err := decl.Load("app.yaml")
//	if err != nil {
//		return err
//	}
//	tree := d.Build()
//	for _, root := range tree.Roots() {
//		if res := validation.Validate(root); res.HasErrors() {
//			return res.Err()
//		}
//	}
//
// RegistryKeys lists the functions a runtime registry has to provide for
// the declarations.
package decl
