/*
Package loam serves the product catalog from a directory of markdown documents.

Each document is one product: the frontmatter carries the structured fields
(step, price, variants...) and the markdown body becomes the description.

	---
	id: canopy-std
	step: canopy
	name: Standard canopy
	price: 3200
	variants:
	  autospec: av-cstd
	---
	Aluminium canopy with gas struts.

Documents without a step are ignored, so notes and READMEs can live alongside
products. Watch reports changed documents for hot reload.
*/
package loam
