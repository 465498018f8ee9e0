package fatboot

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/aligator/fatboot/checkpoint"
)

func corrupt(format string, args ...interface{}) error {
	return checkpoint.Wrapf(ErrCorruptVolume, ErrCorruptVolume, format, args...)
}

// NextCluster returns the cluster following cluster in its chain.
// ok is false if the FAT marks cluster as the end of the chain, as bad or as free.
// A link to a cluster outside of the volume is reported as ErrCorruptVolume.
func (v *Volume) NextCluster(cluster uint32) (next uint32, ok bool, err error) {
	if cluster < firstCluster || cluster > v.MaxCluster {
		return 0, false, corrupt("cluster %d outside of 2..%d", cluster, v.MaxCluster)
	}

	switch v.FatType {
	case Fat12:
		// Two entries share three bytes, so an entry starts on a nibble for odd clusters.
		var b [2]byte
		if err := v.cache.ReadBytes(v.Device, v.FatPos+uint64(cluster)+uint64(cluster/2), b[:]); err != nil {
			return 0, false, err
		}
		value := binary.LittleEndian.Uint16(b[:])
		if cluster&1 == 1 {
			value >>= 4
		}
		next = uint32(value & 0x0FFF)
	case Fat16:
		var b [2]byte
		if err := v.cache.ReadBytes(v.Device, v.FatPos+uint64(cluster)*2, b[:]); err != nil {
			return 0, false, err
		}
		next = uint32(binary.LittleEndian.Uint16(b[:]))
	default:
		var b [4]byte
		if err := v.cache.ReadBytes(v.Device, v.FatPos+uint64(cluster)*4, b[:]); err != nil {
			return 0, false, err
		}
		// The upper 4 bits are reserved.
		next = binary.LittleEndian.Uint32(b[:]) & 0x0FFFFFFF
	}

	if next == 0 || next >= v.badCluster() {
		return 0, false, nil
	}
	if next < firstCluster || next > v.MaxCluster {
		return 0, false, corrupt("cluster %d links to %d outside of 2..%d", cluster, next, v.MaxCluster)
	}
	return next, true, nil
}

// maxChainLength is the number of clusters a chain can have without repeating one.
func (v *Volume) maxChainLength() uint32 {
	return v.MaxCluster - 1
}

// WalkChain calls fn for every cluster of the chain starting at start.
// A chain longer than the number of clusters on the volume must contain a loop
// and is reported as ErrCorruptVolume.
func (v *Volume) WalkChain(start uint32, fn func(cluster uint32) error) error {
	cluster := start
	for count := uint32(1); ; count++ {
		if count > v.maxChainLength() {
			return corrupt("chain starting at %d is longer than %d clusters", start, v.maxChainLength())
		}
		if err := fn(cluster); err != nil {
			return err
		}

		next, ok, err := v.NextCluster(cluster)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		cluster = next
	}
}

// ChainLength counts the clusters of the chain starting at start.
func (v *Volume) ChainLength(start uint32) (uint32, error) {
	var length uint32
	err := v.WalkChain(start, func(uint32) error {
		length++
		return nil
	})
	return length, err
}

// advance moves the cursor of f to the next cluster of its chain.
// ok is false if the chain ends.
func (v *Volume) advance(f *File) (ok bool, err error) {
	next, ok, err := v.NextCluster(f.currentCluster)
	if err != nil || !ok {
		return false, err
	}
	if f.clusterIndex+1 >= v.maxChainLength() {
		return false, corrupt("chain starting at %d is longer than %d clusters", f.StartingCluster, v.maxChainLength())
	}
	f.currentCluster = next
	f.clusterIndex++
	return true, nil
}

// SetFilePos moves the cursor of f to pos.
// Moving forward follows the chain from the current cluster. As the FAT has no backward links,
// moving backward restarts at the first cluster.
// Regular files cannot be positioned behind their size; directories not behind the end of their chain.
func (v *Volume) SetFilePos(f *File, pos uint32) error {
	if f.IsFixedRootDir {
		if pos > v.rootDirSize() {
			return checkpoint.Wrapf(ErrInvalidPosition, ErrInvalidPosition, "%d behind the root directory", pos)
		}
		f.currentPos = pos
		return nil
	}

	if !f.IsDir() && pos > f.FileSize {
		return checkpoint.Wrapf(ErrInvalidPosition, ErrInvalidPosition, "%d behind the file size %d", pos, f.FileSize)
	}

	if f.StartingCluster == 0 {
		if pos != 0 {
			return checkpoint.Wrapf(ErrInvalidPosition, ErrInvalidPosition, "%d in a file without clusters", pos)
		}
		f.currentPos = 0
		f.currentCluster = 0
		f.clusterIndex = 0
		return nil
	}

	target := pos / v.ClusterSize
	if f.currentCluster == 0 || target < f.clusterIndex {
		if f.StartingCluster < firstCluster || f.StartingCluster > v.MaxCluster {
			return corrupt("first cluster %d outside of 2..%d", f.StartingCluster, v.MaxCluster)
		}
		f.currentCluster = f.StartingCluster
		f.clusterIndex = 0
	}

	for f.clusterIndex < target {
		ok, err := v.advance(f)
		if err != nil {
			return err
		}
		if ok {
			continue
		}

		// A position right behind the last cluster is valid, the cursor stays on that cluster.
		if f.clusterIndex+1 == target && pos%v.ClusterSize == 0 {
			break
		}
		if f.IsDir() {
			return checkpoint.Wrapf(ErrInvalidPosition, ErrInvalidPosition, "%d behind the directory end", pos)
		}
		return corrupt("chain of a %d byte file ends after %d clusters", f.FileSize, f.clusterIndex+1)
	}

	f.currentPos = pos
	return nil
}

// available returns how many bytes can be read from the cursor position on.
func (v *Volume) available(f *File) uint32 {
	switch {
	case f.IsFixedRootDir:
		return v.rootDirSize() - f.currentPos
	case f.IsDir():
		// Directories end with their chain.
		return math.MaxUint32 - f.currentPos
	default:
		return f.FileSize - f.currentPos
	}
}

// ReadFile reads into buf starting at the cursor of f and advances the cursor.
// It crosses cluster boundaries on its own and reads physically contiguous clusters with a single request.
// If less than len(buf) bytes are left, it returns the number of bytes read together with io.EOF.
func (v *Volume) ReadFile(f *File, buf []byte) (int, error) {
	want := len(buf)
	if avail := v.available(f); uint64(avail) < uint64(want) {
		want = int(avail)
	}

	n, err := v.read(f, buf[:want])
	if err != nil {
		return n, err
	}
	if n < len(buf) {
		return n, io.EOF
	}
	return n, nil
}

func (v *Volume) read(f *File, buf []byte) (int, error) {
	if len(buf) == 0 {
		return 0, nil
	}

	if f.IsFixedRootDir {
		if err := v.cache.ReadBytes(v.Device, v.RootDirPos+uint64(f.currentPos), buf); err != nil {
			return 0, err
		}
		f.currentPos += uint32(len(buf))
		return len(buf), nil
	}

	if f.StartingCluster == 0 {
		return 0, corrupt("%d byte file without clusters", f.FileSize)
	}
	if f.currentCluster == 0 {
		if err := v.SetFilePos(f, f.currentPos); err != nil {
			return 0, err
		}
	}

	clusterSize := v.ClusterSize
	read := 0
	for read < len(buf) {
		if f.currentPos/clusterSize > f.clusterIndex {
			ok, err := v.advance(f)
			if err != nil {
				return read, err
			}
			if !ok {
				if f.IsDir() {
					return read, nil
				}
				return read, corrupt("chain of a %d byte file ends after %d clusters", f.FileSize, f.clusterIndex+1)
			}
		}

		// Find out how many of the following clusters are stored right after this one.
		runStart, runIndex := f.currentCluster, f.clusterIndex
		offset := f.currentPos % clusterSize
		span := uint64(clusterSize - offset)
		for last := runStart; span < uint64(len(buf)-read); last++ {
			next, ok, err := v.NextCluster(last)
			if err != nil {
				return read, err
			}
			if !ok || next != last+1 {
				break
			}
			span += uint64(clusterSize)
		}

		n := len(buf) - read
		if uint64(n) > span {
			n = int(span)
		}
		if err := v.cache.ReadBytes(v.Device, v.clusterPos(runStart)+uint64(offset), buf[read:read+n]); err != nil {
			return read, err
		}
		read += n
		f.currentPos += uint32(n)

		// Keep the cursor on the cluster holding the last byte read.
		f.clusterIndex = (f.currentPos - 1) / clusterSize
		f.currentCluster = runStart + (f.clusterIndex - runIndex)
	}

	return read, nil
}
