package octree

// Observer is notified as blocks are created and discarded. It exists for debug
// visualisation: implementations may read the block but must not mutate the index.
// A panicking observer is logged and otherwise ignored.
type Observer interface {
	// Attach is called after a block joins the tree, including the initial blocks.
	Attach(b *Block)
	// Detach is called when a block leaves the tree, children before their parent.
	Detach(b *Block)
}

func (idx *Index) attach(b *Block) {
	if idx.observer == nil {
		return
	}
	defer idx.recoverObserver("attach")
	idx.observer.Attach(b)
}

func (idx *Index) detach(b *Block) {
	if idx.observer == nil {
		return
	}
	defer idx.recoverObserver("detach")
	idx.observer.Detach(b)
}

func (idx *Index) recoverObserver(op string) {
	if r := recover(); r != nil {
		idx.logger.Warn("octree observer failed", "op", op, "panic", r)
	}
}
