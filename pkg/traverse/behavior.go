package traverse

// Behavior supplies the per-node work of a pass. The engine calls, per
// visited node: AllowTraverse; then EnterContainer or EnterLeaf;
// HandleContent; the children; and Leave. Leave is called for every node
// that AllowTraverse accepted, whatever Enter returned.
//
// Hooks return nil or one of the signals (SkipChildren, SkipElement,
// SkipSubtree, ErrInvisible). Any other error aborts the pass.
type Behavior interface {
	AllowTraverse(info *NodeInfo) bool
	EnterContainer(info *NodeInfo) error
	EnterLeaf(info *NodeInfo) error
	HandleContent(info *NodeInfo) error
	Leave(info *NodeInfo) error
}

// BaseBehavior visits everything and does nothing. Embed it to implement
// only some hooks.
type BaseBehavior struct{}

func (BaseBehavior) AllowTraverse(*NodeInfo) bool   { return true }
func (BaseBehavior) EnterContainer(*NodeInfo) error { return nil }
func (BaseBehavior) EnterLeaf(*NodeInfo) error      { return nil }
func (BaseBehavior) HandleContent(*NodeInfo) error  { return nil }
func (BaseBehavior) Leave(*NodeInfo) error          { return nil }
