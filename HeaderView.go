package mailview

// EmailRecord is the header data of one message as the web interface
// consumes it.
type EmailRecord struct {
	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`
	ReceivedOn  string `json:"receivedOn"`
	Subject     string `json:"subject"`
}

type NodeKind int

const (
	GridNode NodeKind = iota
	CellNode
	LabelNode
	ValueNode
)

// GridColumns is the column basis cell widths are expressed in.
const GridColumns = 12

// Node is one element of a header layout tree. Width is only set on cells,
// Text only on labels and values.
type Node struct {
	Kind     NodeKind
	Width    int
	Text     string
	Children []Node
}

func (n Node) IsGrid() bool  { return n.Kind == GridNode }
func (n Node) IsCell() bool  { return n.Kind == CellNode }
func (n Node) IsLabel() bool { return n.Kind == LabelNode }

// Field is a label with its displayed value.
type Field struct {
	Label string
	Value string
}

// Fields returns the label/value pairs of the tree in document order.
func (n Node) Fields() []Field {
	fields := make([]Field, 0)
	if n.Kind == CellNode {
		var f Field
		for _, c := range n.Children {
			switch c.Kind {
			case LabelNode:
				f.Label = c.Text
			case ValueNode:
				f.Value = c.Text
			}
		}
		return append(fields, f)
	}
	for _, c := range n.Children {
		fields = append(fields, c.Fields()...)
	}
	return fields
}

func labeledCell(width int, label, value string) Node {
	return Node{
		Kind:  CellNode,
		Width: width,
		Children: []Node{
			{Kind: LabelNode, Text: label},
			{Kind: ValueNode, Text: value},
		},
	}
}

// HeaderView lays out the sender, recipient, received time and subject of a
// record. From, To and ReceivedOn take half a row each, Subject takes a full
// row. An unparseable ReceivedOn fails the whole view with an error wrapping
// ErrInvalidTimestamp.
func HeaderView(record EmailRecord) (Node, error) {
	receivedOn, err := FormatReceivedOn(record.ReceivedOn)
	if err != nil {
		return Node{}, err
	}

	half := GridColumns / 2
	return Node{
		Kind: GridNode,
		Children: []Node{
			labeledCell(half, "From:", record.FromAddress),
			labeledCell(half, "To:", record.ToAddress),
			labeledCell(half, "ReceivedOn:", receivedOn),
			labeledCell(GridColumns, "Subject:", record.Subject),
		},
	}, nil
}
