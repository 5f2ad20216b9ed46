package domain

// Layout components the engine pattern-matches. Every other component or
// decorator name is opaque.
const (
	ComponentGrid = "Grid"
	ComponentRow  = "Grid.Row"
	ComponentCol  = "Grid.Col"
)

// Names used by the designer when it builds or inspects blueprints.
const (
	ComponentFormField = "Form.Field"
	DecoratorDisplayed = "AddNew.Displayed"
	DecoratorCardItem  = "CardItem"
	DecoratorFormItem  = "FormItem"

	// PropFieldName is the Form.Field prop naming the displayed data field.
	PropFieldName = "fieldName"
	// PropDisplayName is the AddNew.Displayed decorator prop naming a toggle.
	PropDisplayName = "displayName"
	// PropCollectionName and PropResource bind a block to its data source.
	PropCollectionName = "collectionName"
	PropResource       = "resource"
)
