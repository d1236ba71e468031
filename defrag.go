package rodos

// treeNode is the decoded directory tree used while defragmenting. File
// content is buffered so the new layout can be written without reading a
// chain that already moved.
type treeNode struct {
	entry    Entry
	children []*treeNode
	content  []byte
}

// Defragment relocates every live chain to contiguous, low-numbered
// clusters in preorder: root first, then each directory's entries in
// listing order. Tombstoned slots are dropped on the way. Afterwards all
// allocated clusters occupy the lowest indices and everything else is free,
// which also makes a second pass a no-op.
func (d *Disk) Defragment() error {
	root := &treeNode{entry: d.rootEntry()}
	if err := d.loadTree(root); err != nil {
		return err
	}

	fat := make(table, d.header.ClusterCount)
	clusters := make([][]byte, d.header.ClusterCount)
	for i := range clusters {
		clusters[i] = make([]byte, d.header.ClusterSize)
	}

	cursor := d.header.RootCluster
	d.assignRuns(root, &cursor)
	d.writeTree(root, fat, clusters)

	d.fat = fat
	d.clusters = clusters

	d.log.Info("disk defragmented", "usedClusters", cursor, "freeClusters", d.fat.freeCount())
	return nil
}

// loadTree decodes the live entries below node into memory, buffering file
// content.
func (d *Disk) loadTree(node *treeNode) error {
	_, slots, err := d.readDir(node.entry)
	if err != nil {
		return err
	}

	for _, entry := range liveEntries(slots) {
		child := &treeNode{entry: entry}

		if entry.IsDir() {
			if err := d.loadTree(child); err != nil {
				return err
			}
		} else if entry.FirstCluster != noCluster {
			data, err := d.readChain(entry.FirstCluster)
			if err != nil {
				return err
			}
			child.content = data[:entry.Size]
		}

		node.children = append(node.children, child)
	}

	return nil
}

// assignRuns gives every node a contiguous cluster run in preorder. Only
// index arithmetic happens here; nothing is written yet, so parent records
// can be encoded later with the final child locations.
func (d *Disk) assignRuns(node *treeNode, cursor *uint32) {
	need := 0
	if node.entry.IsDir() {
		need = d.clustersFor(uint32(len(node.children) * entrySize))
		if need == 0 {
			need = 1
		}
	} else {
		need = d.clustersFor(node.entry.Size)
	}

	if need == 0 {
		node.entry.FirstCluster = noCluster
	} else {
		node.entry.FirstCluster = *cursor
		*cursor += uint32(need)
	}

	for _, child := range node.children {
		d.assignRuns(child, cursor)
	}
}

// writeTree fills the new table and cluster store from the assigned runs.
func (d *Disk) writeTree(node *treeNode, fat table, clusters [][]byte) {
	var data []byte
	if node.entry.IsDir() {
		for _, child := range node.children {
			data = append(data, child.entry.encode()...)
		}
	} else {
		data = node.content
	}

	if node.entry.FirstCluster != noCluster {
		need := d.clustersFor(uint32(len(data)))
		if need == 0 {
			need = 1
		}

		start := node.entry.FirstCluster
		clusterSize := int(d.header.ClusterSize)
		for i := 0; i < need; i++ {
			cluster := start + uint32(i)
			if i == need-1 {
				fat[cluster] = fatEOC
			} else {
				fat[cluster] = fatEntry(cluster + 1)
			}

			offset := i * clusterSize
			if offset < len(data) {
				copy(clusters[cluster], data[offset:])
			}
		}
	}

	for _, child := range node.children {
		d.writeTree(child, fat, clusters)
	}
}
