package schema

// commonTypes is the IFC 2x3 / 2x4 vocabulary preloaded at startup. The
// list covers the header records, the project/unit entities the loader
// reads, the relationship entities the post-index passes walk, and the
// building-element and representation types downstream consumers query
// for. Entity names outside this list are registered when first seen in a
// file.
var commonTypes = []string{
	// Header records
	"FILE_DESCRIPTION",
	"FILE_NAME",
	"FILE_SCHEMA",

	// Project structure
	"IFCPROJECT",
	"IFCSITE",
	"IFCBUILDING",
	"IFCBUILDINGSTOREY",
	"IFCSPACE",

	// Units
	"IFCUNITASSIGNMENT",
	"IFCSIUNIT",
	"IFCCONVERSIONBASEDUNIT",
	"IFCDERIVEDUNIT",
	"IFCDERIVEDUNITELEMENT",
	"IFCMEASUREWITHUNIT",
	"IFCDIMENSIONALEXPONENTS",
	"IFCMONETARYUNIT",

	// Relationships
	"IFCRELAGGREGATES",
	"IFCRELVOIDSELEMENT",
	"IFCRELFILLSELEMENT",
	"IFCRELCONTAINEDINSPATIALSTRUCTURE",
	"IFCRELDEFINESBYPROPERTIES",
	"IFCRELDEFINESBYTYPE",
	"IFCRELASSOCIATESMATERIAL",
	"IFCRELASSOCIATESCLASSIFICATION",
	"IFCRELCONNECTSPATHELEMENTS",
	"IFCRELSPACEBOUNDARY",

	// Building elements
	"IFCWALL",
	"IFCWALLSTANDARDCASE",
	"IFCSLAB",
	"IFCROOF",
	"IFCBEAM",
	"IFCCOLUMN",
	"IFCDOOR",
	"IFCWINDOW",
	"IFCSTAIR",
	"IFCSTAIRFLIGHT",
	"IFCRAMP",
	"IFCRAMPFLIGHT",
	"IFCRAILING",
	"IFCCURTAINWALL",
	"IFCPLATE",
	"IFCMEMBER",
	"IFCFOOTING",
	"IFCPILE",
	"IFCCOVERING",
	"IFCBUILDINGELEMENTPROXY",
	"IFCOPENINGELEMENT",
	"IFCFURNISHINGELEMENT",
	"IFCFLOWTERMINAL",
	"IFCFLOWSEGMENT",
	"IFCFLOWFITTING",
	"IFCDISTRIBUTIONELEMENT",

	// Materials and styles
	"IFCMATERIAL",
	"IFCMATERIALLIST",
	"IFCMATERIALLAYER",
	"IFCMATERIALLAYERSET",
	"IFCMATERIALLAYERSETUSAGE",
	"IFCMATERIALDEFINITIONREPRESENTATION",
	"IFCSTYLEDITEM",
	"IFCSTYLEDREPRESENTATION",
	"IFCPRESENTATIONSTYLEASSIGNMENT",
	"IFCSURFACESTYLE",
	"IFCSURFACESTYLERENDERING",
	"IFCSURFACESTYLESHADING",
	"IFCCOLOURRGB",

	// Geometry carriers (indexed, not interpreted)
	"IFCPRODUCTDEFINITIONSHAPE",
	"IFCSHAPEREPRESENTATION",
	"IFCGEOMETRICREPRESENTATIONCONTEXT",
	"IFCGEOMETRICREPRESENTATIONSUBCONTEXT",
	"IFCLOCALPLACEMENT",
	"IFCAXIS2PLACEMENT2D",
	"IFCAXIS2PLACEMENT3D",
	"IFCCARTESIANPOINT",
	"IFCDIRECTION",
	"IFCPOLYLINE",
	"IFCEXTRUDEDAREASOLID",
	"IFCARBITRARYCLOSEDPROFILEDEF",
	"IFCRECTANGLEPROFILEDEF",
	"IFCCIRCLEPROFILEDEF",
	"IFCFACETEDBREP",
	"IFCCLOSEDSHELL",
	"IFCFACE",
	"IFCFACEOUTERBOUND",
	"IFCPOLYLOOP",
	"IFCMAPPEDITEM",
	"IFCREPRESENTATIONMAP",
	"IFCBOOLEANCLIPPINGRESULT",
	"IFCPOLYGONALFACESET",
	"IFCINDEXEDPOLYGONALFACE",
	"IFCTRIANGULATEDFACESET",

	// Actors and ownership
	"IFCOWNERHISTORY",
	"IFCPERSON",
	"IFCORGANIZATION",
	"IFCPERSONANDORGANIZATION",
	"IFCAPPLICATION",

	// Property sets
	"IFCPROPERTYSET",
	"IFCPROPERTYSINGLEVALUE",
	"IFCELEMENTQUANTITY",
	"IFCQUANTITYLENGTH",
	"IFCQUANTITYAREA",
	"IFCQUANTITYVOLUME",
}
