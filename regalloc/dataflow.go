package regalloc

// runDataflow computes, for every block, the set of vregs live across its
// entry (livein) and exit (liveout) boundary, via a backward worklist
// fixpoint over the CFG. It is a plain liveness dataflow: the
// exact ProgPoint at which a range starts or ends is the job of the
// reverse range-construction scan (liveranges.go), which runs next and
// reuses none of this pass's state except the final livein/liveout
// bitsets.
//
// Grounded on original_source/src/ion/liveranges.rs's compute_liveness
// worklist loop: seed the queue with CFG postorder (so most blocks are
// visited once before any of their predecessors need re-visiting), and
// keep re-enqueueing predecessors whose liveout set grows until the queue
// drains.
func (b *LivenessBuilder) runDataflow() error {
	numBlocks := b.f.NumBlocks()
	b.livein = make([]indexSet, numBlocks)
	b.liveout = make([]indexSet, numBlocks)
	for i := range b.livein {
		b.livein[i] = newIndexSet()
		b.liveout[i] = newIndexSet()
	}

	queue := append([]Block(nil), b.cfg.Postorder...)
	onQueue := make([]bool, numBlocks)
	for _, blk := range queue {
		onQueue[blk.Index()] = true
	}

	for len(queue) > 0 {
		blk := queue[0]
		queue = queue[1:]
		onQueue[blk.Index()] = false
		b.Stats.LiveinIterations++

		live := b.liveout[blk.Index()].clone()

		insns := b.f.BlockInsns(blk)
		for i := len(insns) - 1; i >= 0; i-- {
			inst := insns[i]

			if src, dst, ok := b.f.IsMove(inst); ok {
				live.clear(uint(dst.VReg.Index()))
				live.set(uint(src.VReg.Index()))
			}

			for _, pos := range [2]OperandPos{Late, Early} {
				for _, op := range b.f.InstOperands(inst) {
					if op.Pos != pos {
						continue
					}
					switch op.Kind {
					case OperandDef:
						live.clear(uint(op.VReg.Index()))
					case OperandUse, OperandMod:
						live.set(uint(op.VReg.Index()))
					}
				}
			}
		}

		for _, pv := range b.f.BlockParams(blk) {
			live.clear(uint(pv.Index()))
		}

		b.livein[blk.Index()] = live

		for _, pred := range b.f.BlockPreds(blk) {
			if b.liveout[pred.Index()].unionWith(&live) {
				if !onQueue[pred.Index()] {
					onQueue[pred.Index()] = true
					queue = append(queue, pred)
				}
			}
		}
	}

	entry := b.f.EntryBlock()
	if !b.livein[entry.Index()].isEmpty() {
		return &LivenessError{Block: entry}
	}
	return nil
}
