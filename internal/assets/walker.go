package assets

import "context"

// DependencyGraph supplies the walker with edges and node resolution. The
// catalog satisfies it; tests use in-memory fakes.
type DependencyGraph interface {
	// GetAssetByHash resolves a hash to its record, or (nil, nil) when the
	// hash has no record.
	GetAssetByHash(ctx context.Context, hash string) (*AssetRecord, error)
	// GetDependencyHashes lists the declared dependencies of an asset.
	GetDependencyHashes(ctx context.Context, ownerHash string) ([]string, error)
}

// VisitFunc observes one node of the walk. record is nil when the hash could
// not be resolved, so observers can flag broken dependencies.
type VisitFunc func(hash string, record *AssetRecord)

// WalkDependencies visits the root and every transitively declared
// dependency depth-first in pre-order, invoking visit exactly once per
// distinct hash. Unresolvable hashes still receive a visit with a nil
// record, and recursion stops there.
//
// Dependency edges come from untrusted uploads, so the graph may contain
// cycles; the per-walk visited set short-circuits repeat hashes and bounds
// the traversal to one visit per reachable node.
func WalkDependencies(ctx context.Context, graph DependencyGraph, root *AssetRecord, visit VisitFunc) error {
	visited := map[string]struct{}{root.Hash: {}}
	visit(root.Hash, root)
	return walkChildren(ctx, graph, root, visit, visited)
}

func walkChildren(ctx context.Context, graph DependencyGraph, owner *AssetRecord, visit VisitFunc, visited map[string]struct{}) error {
	dependencies, err := graph.GetDependencyHashes(ctx, owner.Hash)
	if err != nil {
		return err
	}
	for _, hash := range dependencies {
		if _, seen := visited[hash]; seen {
			continue
		}
		visited[hash] = struct{}{}

		record, err := graph.GetAssetByHash(ctx, hash)
		if err != nil {
			return err
		}
		visit(hash, record)
		if record == nil {
			continue
		}
		if err := walkChildren(ctx, graph, record, visit, visited); err != nil {
			return err
		}
	}
	return nil
}

// TreeFlags aggregates classification flags across an asset's whole
// dependency tree. Unresolvable dependencies count as Dangerous: a blob the
// catalog cannot vouch for must not launder a clean aggregate.
func TreeFlags(ctx context.Context, graph DependencyGraph, classifier *Classifier, root *AssetRecord) (AssetFlags, error) {
	aggregate := FlagNone
	err := WalkDependencies(ctx, graph, root, func(hash string, record *AssetRecord) {
		if record == nil {
			aggregate |= FlagDangerous
			return
		}
		aggregate |= classifier.Flags(record)
	})
	if err != nil {
		return FlagNone, err
	}
	return aggregate, nil
}
